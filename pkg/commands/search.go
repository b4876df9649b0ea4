package commands

import (
	"github.com/arthur-debert/saveli/pkg/types"
)

// Search looks keyword up in the catalog and pairs each hit with its
// registry state
func Search(opts Options, keyword string) ([]types.SearchHit, error) {
	s, err := openSession(opts, false)
	if err != nil {
		return nil, err
	}
	defer s.close()

	entries, err := s.cat.Search(keyword)
	if err != nil {
		return nil, err
	}

	hits := make([]types.SearchHit, len(entries))
	for i, e := range entries {
		hits[i] = types.SearchHit{Entry: e, State: s.reg.Get(e.ID)}
	}
	return hits, nil
}
