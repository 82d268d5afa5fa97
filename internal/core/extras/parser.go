// Package extras parses the metadata blobs authored on scene nodes into typed
// component values.
//
// A blob is a mapping. Ordinary keys name a component by display name, with
// an optional "component: " marker ("component: speed" -> Speed). The
// reserved key "bevy_components" holds a nested mapping keyed by canonical
// type path instead. Values are YAML or JSON; string values are parsed again
// as value text, since the content pipeline stores structured values as
// strings.
package extras

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/schema/registry"
)

// ExtendedKey is the reserved key of the canonical-path channel.
const ExtendedKey = "bevy_components"

// ComponentMarker is stripped from primary channel keys.
const ComponentMarker = "component: "

type Channel uint8

const (
	ChannelPrimary Channel = iota
	ChannelExtended
)

func (c Channel) String() string {
	if c == ChannelExtended {
		return "extended"
	}
	return "primary"
}

// Decoded is one component ready to be attached to a node.
type Decoded struct {
	Instance   any
	Descriptor *registry.Descriptor
	Channel    Channel
	Key        string
}

type Report struct {
	Components  []Decoded
	Diagnostics []Diagnostic
}

type Options struct {
	// Ignore holds substrings of type names that never produce an
	// unregistered_type diagnostic.
	Ignore []string
	Filter registry.Filter
	// StrictExtended aborts the whole blob when an extended channel entry
	// fails to decode.
	StrictExtended bool
}

// Parser is stateless between calls and can be shared.
type Parser struct {
	reg    *registry.Registry
	logger log.Log
	opts   Options
}

func NewParser(reg *registry.Registry, logger log.Log, opts Options) *Parser {
	return &Parser{
		reg:    reg,
		logger: logger.With(log.String("component", "extras")),
		opts:   opts,
	}
}

// DisplayName turns a primary channel key into the short type name it refers
// to.
func DisplayName(key string) string {
	name := strings.TrimSpace(strings.ReplaceAll(key, ComponentMarker, ""))
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}

// Parse decodes every entry of blob. node is the display name of the owning
// node and only appears in diagnostics. A malformed blob, or a strict mode
// failure, returns an error and a report with no components.
func (p *Parser) Parse(blob, node string) (Report, error) {
	var (
		report Report
		doc    yaml.Node
	)
	root, err := parseMapping(blob, &doc)
	if err != nil {
		p.record(&report, Diagnostic{Kind: MalformedBlob, Node: node, Err: err})
		return report, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}

	var extended []Decoded
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i].Value, root.Content[i+1]
		if key == ExtendedKey {
			out, err := p.parseExtended(&report, value, node)
			if err != nil {
				report.Components = nil
				return report, err
			}
			extended = append(extended, out...)
			continue
		}
		if d, ok := p.parsePrimary(&report, key, value, node); ok {
			report.Components = append(report.Components, d)
		}
	}
	report.Components = append(report.Components, extended...)
	return report, nil
}

func (p *Parser) parsePrimary(report *Report, key string, value *yaml.Node, node string) (Decoded, bool) {
	name := DisplayName(key)
	desc, ok := p.reg.LookupByShortName(name)
	if !ok {
		if p.ignored(name) {
			p.logger.Debug("ignoring unregistered metadata key", log.Node(node), log.Type(name))
			return Decoded{}, false
		}
		p.record(report, Diagnostic{Kind: UnregisteredType, Node: node, Type: name})
		return Decoded{}, false
	}
	if paths := p.reg.Ambiguous(name); paths != nil {
		p.logger.Debug("short type name is ambiguous, using first registration",
			log.Node(node), log.Type(name), log.Strings("candidates", paths))
	}
	return p.decode(report, desc, key, value, node, ChannelPrimary)
}

func (p *Parser) parseExtended(report *Report, value *yaml.Node, node string) ([]Decoded, error) {
	nested, err := nestedMapping(value)
	if err != nil {
		p.record(report, Diagnostic{Kind: MalformedExtended, Node: node, Type: ExtendedKey, Err: err})
		return nil, nil
	}

	var out []Decoded
	for i := 0; i+1 < len(nested.Content); i += 2 {
		path, raw := nested.Content[i].Value, nested.Content[i+1]
		desc, ok := p.reg.LookupByPath(path)
		if !ok {
			if p.ignored(path) {
				continue
			}
			p.record(report, Diagnostic{Kind: UnregisteredType, Node: node, Type: path})
			continue
		}
		before := len(report.Diagnostics)
		d, ok := p.decode(report, desc, path, raw, node, ChannelExtended)
		if !ok {
			if p.opts.StrictExtended && len(report.Diagnostics) > before {
				if last := report.Diagnostics[len(report.Diagnostics)-1]; last.Kind == DecodeFailed {
					return nil, fmt.Errorf("%w: %s: %v", ErrStrictDecode, path, last.Err)
				}
			}
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (p *Parser) decode(report *Report, desc *registry.Descriptor, key string, value *yaml.Node, node string, ch Channel) (Decoded, bool) {
	if !p.opts.Filter.Allows(desc.Path) {
		p.logger.Debug("type filtered out", log.Node(node), log.Type(desc.Path))
		return Decoded{}, false
	}
	if !desc.IsComponent {
		p.record(report, Diagnostic{Kind: NotAComponent, Node: node, Type: desc.Path})
		return Decoded{}, false
	}

	raw, err := valueNode(desc, value)
	if err == nil {
		var inst any
		if inst, err = p.reg.Decode(desc, raw); err == nil {
			return Decoded{Instance: inst, Descriptor: desc, Channel: ch, Key: key}, true
		}
	}
	p.record(report, Diagnostic{Kind: DecodeFailed, Node: node, Type: desc.Path, Err: err})
	return Decoded{}, false
}

func (p *Parser) record(report *Report, d Diagnostic) {
	report.Diagnostics = append(report.Diagnostics, d)
	fields := []log.Field{log.String("kind", string(d.Kind)), log.Node(d.Node), log.Type(d.Type)}
	if d.Err != nil {
		fields = append(fields, log.Error(d.Err))
	}
	p.logger.Warn("metadata diagnostic", fields...)
}

func (p *Parser) ignored(name string) bool {
	for _, s := range p.opts.Ignore {
		if s != "" && strings.Contains(name, s) {
			return true
		}
	}
	return false
}

func parseMapping(text string, doc *yaml.Node) (*yaml.Node, error) {
	if err := yaml.Unmarshal([]byte(text), doc); err != nil {
		return nil, err
	}
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping at the top level")
	}
	return root, nil
}

// nestedMapping accepts the extended channel either inline or as text.
func nestedMapping(value *yaml.Node) (*yaml.Node, error) {
	if value.Kind == yaml.MappingNode {
		return value, nil
	}
	if isText(value) {
		var doc yaml.Node
		return parseMapping(value.Value, &doc)
	}
	return nil, fmt.Errorf("expected a mapping keyed by type path")
}

// valueNode re-parses string values as value text, except for string-like
// leaf types that take the text verbatim.
func valueNode(desc *registry.Descriptor, value *yaml.Node) (*yaml.Node, error) {
	if !isText(value) {
		return value, nil
	}
	if o, ok := desc.Shape.(registry.Opaque); ok && (o.Primitive == registry.PathString || o.Primitive == registry.PathChar) {
		return value, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(value.Value), &doc); err != nil {
		return nil, fmt.Errorf("value text: %w", err)
	}
	return &doc, nil
}

func isText(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!str"
}
