package detect

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/scribeworks/mdforge/api"
)

// incidence is a column-major pattern/property match table: one bitmap per
// pattern class holding the indices of the matching properties.
type incidence struct {
	keys       []string
	sequential *roaring.Bitmap
	named      *roaring.Bitmap
	custom     *roaring.Bitmap
}

func (d *Detector) buildIncidence(keys []string) *incidence {
	inc := &incidence{
		keys:       keys,
		sequential: roaring.New(),
		named:      roaring.New(),
		custom:     roaring.New(),
	}
	for i, key := range keys {
		idx := uint32(i)
		for _, re := range d.sequential {
			if re.MatchString(key) {
				inc.sequential.Add(idx)
				break
			}
		}
		if d.isRegistryName(key) {
			inc.named.Add(idx)
		}
		for _, re := range d.custom {
			if re.MatchString(key) {
				inc.custom.Add(idx)
				break
			}
		}
	}
	return inc
}

// matched is the union of all pattern classes.
func (inc *incidence) matched() *roaring.Bitmap {
	return roaring.FastOr(inc.sequential, inc.named, inc.custom)
}

// detectFromPatterns applies the registry pattern fallback: enough property
// keys matching the sequential, named, or custom patterns classify the schema
// as Registry. "Enough" is the configured MinMatches, except for named
// patterns where a single exact hit suffices.
func (d *Detector) detectFromPatterns(s *api.Schema) (StructureType, bool) {
	keys := s.PropertyKeys()
	if len(keys) == 0 {
		return StructureType{}, false
	}
	inc := d.buildIncidence(keys)

	if !inc.named.IsEmpty() {
		return StructureType{Kind: Registry}, true
	}
	min := d.cfg.MinMatches
	if min <= 0 {
		min = 1
	}
	if int(inc.matched().GetCardinality()) >= min {
		return StructureType{Kind: Registry}, true
	}
	return StructureType{}, false
}
