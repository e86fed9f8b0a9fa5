package phone

import "github.com/sells-group/page-audit/internal/model"

// Merge folds candidates into one record per canonical digit key, in the
// order keys are first seen. The first candidate for a key supplies the
// representative raw and display text; later ones only add elements and
// provenance kinds. Output is not sorted.
func Merge(cands []model.PhoneCandidate) []model.PhoneRecord {
	var records []model.PhoneRecord
	index := make(map[string]int, len(cands))

	for _, c := range cands {
		i, ok := index[c.Digits]
		if !ok {
			index[c.Digits] = len(records)
			records = append(records, model.PhoneRecord{
				Digits:      c.Digits,
				Sources:     []model.PhoneSource{c.Source},
				Raw:         c.RawText,
				DisplayText: c.DisplayText,
				Elements:    unionElements(nil, c.Elements),
			})
			continue
		}
		r := &records[i]
		r.Elements = unionElements(r.Elements, c.Elements)
		if !r.HasSource(c.Source) {
			r.Sources = append(r.Sources, c.Source)
		}
	}

	for i := range records {
		records[i].Source = model.CombinedSourceLabel(records[i].Sources)
		records[i].Occurrences = len(records[i].Elements)
	}
	return records
}

// HighlightTargets returns every distinct element referenced by records.
func HighlightTargets(records []model.PhoneRecord) []model.ElementRef {
	var refs []model.ElementRef
	for _, r := range records {
		refs = unionElements(refs, r.Elements)
	}
	return refs
}

func unionElements(dst, src []model.ElementRef) []model.ElementRef {
	for _, e := range src {
		dup := false
		for _, have := range dst {
			if have == e {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, e)
		}
	}
	return dst
}
