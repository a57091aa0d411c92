package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/orchard/pkg/dsl"
)

// samplePit is the pit `orchard init` writes: a length-prefixed login, sent to a file so it
// runs without a live target.
func samplePit(outFile string) *dsl.Builder {
	b := dsl.New("sample")

	b.DataModel("Login").
		Number("Length", 8, 0).SizeOf("User").
		String("User", "guest").
		Padding("Pad", 32)

	b.StateModel("Proto", "Init").
		State("Init").
		Output("Send", "Login").Field("User", "admin").
		ChangeState("Next", "Done")
	b.StateModel("Proto", "Init").
		State("Done").
		Close("Close")

	b.Test("Default", "Proto").
		Publisher("target", "file", map[string]any{"fileName": outFile}).
		Iterations(1)
	return b
}

// Scaffold writes a sample pit into dir as two Loam documents, models.md and states.md.
func Scaffold(ctx context.Context, dir string, w io.Writer) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	// No versioning: the pit is plain files the user edits.
	repo, err := loam.Init(dir, loam.WithVersioning(false))
	if err != nil {
		return fmt.Errorf("failed to initialize loam: %w", err)
	}

	doc := samplePit("sample.out").Document()
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	var sections map[string]any
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return err
	}

	files := []struct {
		id      string
		keys    []string
		content string
	}{
		{"models.md", []string{"name", "dataModels"}, "Messages exchanged with the target."},
		{"states.md", []string{"stateModels", "tests"}, "The conversation and the tests that drive it."},
	}
	for _, f := range files {
		md := core.Metadata{}
		for _, k := range f.keys {
			if v, ok := sections[k]; ok {
				md[k] = v
			}
		}
		if err := repo.Save(ctx, core.Document{ID: f.id, Content: f.content, Metadata: md}); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.id, err)
		}
		printSystemMessage(w, "Wrote %s", f.id)
	}
	return nil
}
