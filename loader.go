package packflow

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// hclManifest mirrors the top-level structure of a setup manifest file.
type hclManifest struct {
	Product  *hclProduct   `hcl:"product,block"`
	Prereq   *hclPrereq    `hcl:"prerequisite,block"`
	Sections []*hclSection `hcl:"section,block"`
	Bundled  *hclBundled   `hcl:"bundled_installer,block"`
}

type hclProduct struct {
	Name            string `hcl:"name"`
	Key             string `hcl:"key,optional"`
	Version         string `hcl:"version"`
	Publisher       string `hcl:"publisher,optional"`
	URL             string `hcl:"url,optional"`
	InstallDir      string `hcl:"install_dir,optional"`
	EstimatedSizeKB uint32 `hcl:"estimated_size_kb,optional"`
}

type hclPrereq struct {
	Name    string `hcl:"name,label"`
	Kind    string `hcl:"kind"`
	Hive    string `hcl:"hive,optional"`
	Key     string `hcl:"key,optional"`
	Value   string `hcl:"value,optional"`
	Minimum uint32 `hcl:"minimum,optional"`
	Path    string `hcl:"path,optional"`
	Message string `hcl:"message"`
}

type hclSection struct {
	Name      string         `hcl:"name,label"`
	Required  bool           `hcl:"required,optional"`
	Files     []*hclFile     `hcl:"file,block"`
	Registry  []*hclRegistry `hcl:"registry,block"`
	Shortcuts []*hclShortcut `hcl:"shortcut,block"`
}

type hclFile struct {
	Source      string `hcl:"source"`
	Destination string `hcl:"destination,optional"`
	Locale      string `hcl:"locale,optional"`
}

type hclRegistry struct {
	Hive  string         `hcl:"hive,optional"`
	Key   string         `hcl:"key"`
	Value string         `hcl:"value"`
	Data  hcl.Expression `hcl:"data"`
}

type hclShortcut struct {
	Target string `hcl:"target"`
	Name   string `hcl:"name"`
	Group  string `hcl:"group,optional"`
}

type hclBundled struct {
	Source  string   `hcl:"source"`
	Args    []string `hcl:"args,optional"`
	LogFile string   `hcl:"log_file,optional"`
	Mutex   string   `hcl:"mutex"`
}

// Load reads and validates a setup manifest from an HCL file.
func Load(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes and validates a setup manifest from HCL source.
// The filename is used in diagnostics only.
func Parse(src []byte, filename string) (*Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse manifest %s: %w", filename, diags)
	}

	var raw hclManifest
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decode manifest %s: %w", filename, diags)
	}
	if raw.Product == nil {
		return nil, fmt.Errorf("manifest %s: missing product block", filename)
	}

	m := &Manifest{
		Product: Product{
			Name:            raw.Product.Name,
			Key:             raw.Product.Key,
			Version:         raw.Product.Version,
			Publisher:       raw.Product.Publisher,
			URL:             raw.Product.URL,
			InstallDir:      raw.Product.InstallDir,
			EstimatedSizeKB: raw.Product.EstimatedSizeKB,
		},
	}

	if raw.Prereq != nil {
		p, err := convertPrereq(raw.Prereq)
		if err != nil {
			return nil, err
		}
		m.Prereq = p
	}

	for _, rs := range raw.Sections {
		s, err := convertSection(rs)
		if err != nil {
			return nil, err
		}
		m.Sections = append(m.Sections, *s)
	}

	if raw.Bundled != nil {
		m.Bundled = &BundledInstaller{
			Source:  raw.Bundled.Source,
			Args:    raw.Bundled.Args,
			LogFile: raw.Bundled.LogFile,
			Mutex:   raw.Bundled.Mutex,
		}
	}

	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", filename, err)
	}
	return m, nil
}

func convertPrereq(rp *hclPrereq) (*PrerequisiteCheck, error) {
	p := &PrerequisiteCheck{
		Name:       rp.Name,
		Kind:       PrereqKind(rp.Kind),
		Key:        rp.Key,
		Value:      rp.Value,
		Minimum:    rp.Minimum,
		Path:       rp.Path,
		MessageKey: rp.Message,
	}
	if rp.Hive != "" {
		hive, err := ParseHive(rp.Hive)
		if err != nil {
			return nil, fmt.Errorf("prerequisite %q: %w", rp.Name, err)
		}
		p.Hive = hive
	} else {
		p.Hive = HiveMachine
	}
	return p, nil
}

func convertSection(rs *hclSection) (*Section, error) {
	s := &Section{Name: rs.Name, Required: rs.Required}

	for _, rf := range rs.Files {
		s.Files = append(s.Files, FileEntry{
			Source:      rf.Source,
			Destination: rf.Destination,
			Locale:      rf.Locale,
		})
	}

	for _, rr := range rs.Registry {
		entry, err := convertRegistry(rs.Name, rr)
		if err != nil {
			return nil, err
		}
		s.Registry = append(s.Registry, *entry)
	}

	for _, rc := range rs.Shortcuts {
		s.Shortcuts = append(s.Shortcuts, ShortcutEntry{
			Target: rc.Target,
			Name:   rc.Name,
			Group:  rc.Group,
		})
	}

	return s, nil
}

// convertRegistry evaluates the data expression, which may be a string or an
// integer, into the matching entry variant.
func convertRegistry(section string, rr *hclRegistry) (*RegistryEntry, error) {
	entry := &RegistryEntry{Hive: HiveMachine, Key: rr.Key, Value: rr.Value}
	if rr.Hive != "" {
		hive, err := ParseHive(rr.Hive)
		if err != nil {
			return nil, fmt.Errorf("section %q: %w", section, err)
		}
		entry.Hive = hive
	}

	val, diags := rr.Data.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("section %q: registry %s\\%s: %w", section, rr.Key, rr.Value, diags)
	}
	switch val.Type() {
	case cty.String:
		entry.String = val.AsString()
	case cty.Number:
		var n uint32
		if err := ctyToUint32(val, &n); err != nil {
			return nil, fmt.Errorf("section %q: registry %s\\%s: %w", section, rr.Key, rr.Value, err)
		}
		entry.DWord = n
		entry.IsDWord = true
	default:
		return nil, fmt.Errorf("section %q: registry %s\\%s: data must be a string or integer", section, rr.Key, rr.Value)
	}
	return entry, nil
}

func ctyToUint32(val cty.Value, out *uint32) error {
	bf := val.AsBigFloat()
	if !bf.IsInt() {
		return fmt.Errorf("data must be an integer")
	}
	n, _ := bf.Int64()
	if n < 0 || n > int64(^uint32(0)) {
		return fmt.Errorf("data %d out of range", n)
	}
	*out = uint32(n)
	return nil
}
