package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	ndb "github.com/ThirdAILabs/ndb-client"
)

// usageError marks bad command-line input (exit code 2).
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("ndb "+name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{msg: err.Error()}
	}
	return nil
}

// printJSON writes data indented, followed by a newline.
func (a *app) printJSON(data []byte, err error) error {
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	buf.WriteByte('\n')
	_, err = a.stdout.Write(buf.Bytes())
	return err
}

func searchCmd(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("search")
	query := fs.String("q", "", "query text; remaining arguments are used when empty")
	topK := fs.Int("k", ndb.DefaultTopK, "number of references to return")
	var where whereFlag
	fs.Var(&where, "where", "constraint `field=Kind:dtype:value`, repeatable; AnyOf takes comma-separated values")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *query == "" {
		*query = strings.Join(fs.Args(), " ")
	}
	if strings.TrimSpace(*query) == "" {
		return usagef("a query is required (-q)")
	}

	b := a.client.Query(*query).TopK(*topK)
	for _, w := range where {
		b = b.Where(w.field, w.constraint)
	}
	resp, err := b.Do(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(ndb.Encode(resp))
}

// documentSpec is the yaml accepted by insert -meta.
type documentSpec struct {
	SourceID      *string           `yaml:"source_id"`
	TextColumns   []string          `yaml:"text_columns"`
	MetadataTypes map[string]string `yaml:"metadata_types"`
	DocMetadata   map[string]any    `yaml:"doc_metadata"`
}

func readDocumentSpec(path string) (documentSpec, error) {
	var spec documentSpec
	data, err := os.ReadFile(path)
	if err != nil {
		return spec, err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return spec, fmt.Errorf("parse %s: %w", path, err)
	}
	return spec, nil
}

func (s documentSpec) options() []ndb.DocumentOption {
	var opts []ndb.DocumentOption
	if s.SourceID != nil {
		opts = append(opts, ndb.WithSourceID(*s.SourceID))
	}
	for _, col := range sortedKeys(s.MetadataTypes) {
		opts = append(opts, ndb.WithMetadataType(col, ndb.DType(s.MetadataTypes[col])))
	}
	for _, key := range sortedKeys(s.DocMetadata) {
		opts = append(opts, ndb.WithDocMetadata(key, s.DocMetadata[key]))
	}
	return opts
}

func insertCmd(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("insert")
	file := fs.String("file", "", "document to upload; the first argument is used when empty")
	metaPath := fs.String("meta", "", "yaml with source_id, text_columns, metadata_types and doc_metadata")
	sourceID := fs.String("source-id", "", "source id, overrides the meta file")
	textColumns := fs.String("text-columns", "", "comma-separated text columns, overrides the meta file")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" && fs.NArg() == 1 {
		*file = fs.Arg(0)
	}
	if *file == "" {
		return usagef("a file is required (-file)")
	}

	var spec documentSpec
	if *metaPath != "" {
		var err error
		if spec, err = readDocumentSpec(*metaPath); err != nil {
			return err
		}
	}
	if *sourceID != "" {
		spec.SourceID = sourceID
	}
	if *textColumns != "" {
		spec.TextColumns = splitCSV(*textColumns)
	}

	meta, err := ndb.NewDocumentMetadata(*file, spec.TextColumns, spec.options()...)
	if err != nil {
		return err
	}
	raw, err := a.client.Insert(ctx, meta)
	if err != nil {
		return err
	}
	return a.printJSON(raw, nil)
}

func deleteCmd(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("delete")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return usagef("at least one source id is required")
	}
	params, err := ndb.NewDeleteParams(fs.Args()...)
	if err != nil {
		return err
	}
	raw, err := a.client.Delete(ctx, params)
	if err != nil {
		return err
	}
	return a.printJSON(raw, nil)
}

func upvoteCmd(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("upvote")
	var pairs pairFlag
	fs.Var(&pairs, "pair", "relevant result as `query_id:reference_id`, repeatable")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if len(pairs) == 0 {
		return usagef("at least one -pair is required")
	}
	raw, err := a.client.Upvote(ctx, ndb.NewUpvoteParams(pairs...))
	if err != nil {
		return err
	}
	return a.printJSON(raw, nil)
}

func sourcesCmd(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(a.flagSet("sources"), args); err != nil {
		return err
	}
	sources, err := a.client.Sources(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(ndb.Encode(sources))
}

func checkpointCmd(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(a.flagSet("checkpoint"), args); err != nil {
		return err
	}
	res, err := a.client.Checkpoint(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(ndb.Encode(res))
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
