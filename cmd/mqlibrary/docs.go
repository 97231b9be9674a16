package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ava-labs/mqlibrary/pkg/keywords"
	"github.com/ava-labs/mqlibrary/pkg/mq/memory"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// keywordDoc is the documentation of one keyword.
type keywordDoc struct {
	Name  string            `json:"name"            yaml:"name"`
	Args  []string          `json:"args"            yaml:"args"`
	Types map[string]string `json:"types,omitempty" yaml:"types,omitempty"`
	Tags  []string          `json:"tags"            yaml:"tags"`
	Doc   string            `json:"doc"             yaml:"doc"`
}

type libraryDoc struct {
	Intro    string       `json:"intro"    yaml:"intro"`
	Keywords []keywordDoc `json:"keywords" yaml:"keywords"`
}

func printKeywords(c *cli.Context) error {
	cfg, err := keywords.LoadConfig()
	if err != nil {
		return err
	}
	// documentation needs no connection, so any driver will do
	lib := keywords.New(memory.NewBroker(), cfg, zap.NewNop().Sugar())
	return writeDocs(c.App.Writer, keywords.NewRegistry(lib), c.String("format"))
}

func buildDocs(reg *keywords.Registry) libraryDoc {
	doc := libraryDoc{Intro: keywords.Intro}
	for _, kw := range reg.Keywords() {
		doc.Keywords = append(doc.Keywords, keywordDoc{
			Name:  kw.Name,
			Args:  kw.ArgSpecs(),
			Types: kw.ArgTypes(),
			Tags:  kw.Tags,
			Doc:   kw.Doc,
		})
	}
	return doc
}

func writeDocs(w io.Writer, reg *keywords.Registry, format string) error {
	doc := buildDocs(reg)

	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode documentation: %w", err)
		}
		return enc.Close()
	case formatText:
		return writeText(w, doc)
	}
	return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, formatText, formatJSON, formatYAML)
}

func writeText(w io.Writer, doc libraryDoc) error {
	var b strings.Builder
	b.WriteString(doc.Intro)
	b.WriteString("\n")
	for _, kw := range doc.Keywords {
		fmt.Fprintf(&b, "\n%s\n%s\n", kw.Name, strings.Repeat("-", len(kw.Name)))
		fmt.Fprintf(&b, "Arguments: %s\n", strings.Join(kw.Args, ", "))
		if len(kw.Tags) > 0 {
			fmt.Fprintf(&b, "Tags: %s\n", strings.Join(kw.Tags, ", "))
		}
		b.WriteString("\n")
		for _, line := range strings.Split(strings.TrimSpace(kw.Doc), "\n") {
			b.WriteString("    " + line + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
