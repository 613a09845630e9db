package server

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/coverletter/internal/compose"
	"github.com/teemow/coverletter/internal/docs"
	"github.com/teemow/coverletter/internal/drive"
	"github.com/teemow/coverletter/internal/letter"
)

// fakeServices implements DriveService and DocsService.
type fakeServices struct {
	mu      sync.Mutex
	active  int32
	maxSeen int32
	delay   time.Duration
	copies  int
}

func (f *fakeServices) enter() func() {
	n := atomic.AddInt32(&f.active, 1)
	f.mu.Lock()
	if n > f.maxSeen {
		f.maxSeen = n
	}
	f.mu.Unlock()
	time.Sleep(f.delay)
	return func() { atomic.AddInt32(&f.active, -1) }
}

func (f *fakeServices) CopyTemplate(ctx context.Context, templateID, title string) (*drive.FileInfo, error) {
	defer f.enter()()
	f.mu.Lock()
	f.copies++
	f.mu.Unlock()
	return &drive.FileInfo{ID: "1copyOfTemplate000000000000", Name: title}, nil
}

func (f *fakeServices) FillPlaceholders(ctx context.Context, documentID string, replacements []docs.Replacement) (*docs.FillResult, error) {
	defer f.enter()()
	return &docs.FillResult{DocumentID: documentID, Occurrences: int64(len(replacements))}, nil
}

func (f *fakeServices) ExportPDF(ctx context.Context, documentID, outputPath string) (*drive.ExportResult, error) {
	defer f.enter()()
	return &drive.ExportResult{DocumentID: documentID, Path: outputPath, Bytes: 10}, nil
}

type staticComposer string

func (c staticComposer) Compose(ctx context.Context, req compose.Request) (string, error) {
	return string(c), nil
}

func newTestPipeline(svc *fakeServices) *letter.Pipeline {
	p, err := letter.NewPipeline(letter.PipelineConfig{
		Template: letter.Template{
			ID:           "1efTTgaz9Lck95iVtZzSfpi6KhidWzg3c_lk1z6zA73I",
			CompanyToken: "{{COMPANY_NAME}}",
			RoleToken:    "{{ROLE_NAME}}",
			BodyToken:    "{{GENERATED_BODY}}",
		},
		Composer: staticComposer("Para1\nPara2"),
		Copier:   svc,
		Filler:   svc,
		Exporter: svc,
	})
	if err != nil {
		panic(err)
	}
	return p
}
