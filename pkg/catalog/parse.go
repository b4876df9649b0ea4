package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/arthur-debert/saveli/pkg/errors"
	"github.com/arthur-debert/saveli/pkg/paths"
	"github.com/arthur-debert/saveli/pkg/types"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written into catalogs saveli creates
const FormatVersion = "1.0"

// supportedVersions is the range of catalog formats this build reads
const supportedVersions = "^1"

// document is the on-disk shape of a catalog file
type document struct {
	Version string               `yaml:"version"`
	Entries []types.CatalogEntry `yaml:"entries"`
}

// Parse decodes and validates a catalog document. custom marks every entry
// as coming from the user.
func Parse(data []byte, custom bool) ([]types.CatalogEntry, error) {
	var doc document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCatalogInvalid, "cannot decode catalog")
	}

	if err := checkVersion(doc.Version); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(doc.Entries))
	for i := range doc.Entries {
		entry := &doc.Entries[i]
		entry.Custom = custom
		if err := ValidateEntry(*entry); err != nil {
			return nil, errors.Wrapf(err, errors.ErrCatalogInvalid, "invalid catalog entry #%d (%s)", i+1, entry.ID).
				WithDetail("entry", entry.ID)
		}
		if seen[entry.ID] {
			return nil, errors.Newf(errors.ErrCatalogInvalid, "duplicate catalog entry %q", entry.ID).
				WithDetail("entry", entry.ID)
		}
		seen[entry.ID] = true
	}

	return doc.Entries, nil
}

func checkVersion(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New(errors.ErrCatalogInvalid, "catalog has no version")
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return errors.Wrapf(err, errors.ErrCatalogInvalid, "catalog version %q is not a version", raw)
	}
	constraint, err := semver.NewConstraint(supportedVersions)
	if err != nil {
		return errors.Wrap(err, errors.ErrInternal, "bad supported catalog range")
	}
	if !constraint.Check(v) {
		return errors.Newf(errors.ErrCatalogVersion, "catalog format %s is not supported (need %s)", v, supportedVersions).
			WithDetail("version", v.String())
	}
	return nil
}

// ValidateEntry checks one catalog entry
func ValidateEntry(e types.CatalogEntry) error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required, validation.By(entryID)),
		validation.Field(&e.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Templates, validation.Required, validation.Each(validation.By(pathTemplate))),
	)
}

func entryID(value interface{}) error {
	id, _ := value.(string)
	return paths.ValidateEntryID(id)
}

func pathTemplate(value interface{}) error {
	tpl, ok := value.(types.PathTemplate)
	if !ok {
		return fmt.Errorf("not a path template")
	}
	known := false
	for _, p := range types.KnownPlatforms {
		if tpl.Platform == p {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown platform %q", tpl.Platform)
	}
	if strings.TrimSpace(tpl.Path) == "" {
		return fmt.Errorf("path must not be empty")
	}
	return nil
}

// Marshal encodes entries as a catalog document
func Marshal(entries []types.CatalogEntry) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Version: FormatVersion, Entries: entries}); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode catalog")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode catalog")
	}
	return buf.Bytes(), nil
}
