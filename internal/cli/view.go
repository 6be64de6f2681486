package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/chromaleap/internal/application/upload"
	"github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// view ties the upload flow, the session and the results view to a terminal.
type view struct {
	flow    *upload.Flow
	session *Session
	out     io.Writer
	errOut  io.Writer

	asJSON    bool
	export    bool
	exportDir string
	now       func() time.Time
}

func newView(flow *upload.Flow, out, errOut io.Writer) *view {
	v := &view{
		flow:      flow,
		session:   &Session{},
		out:       out,
		errOut:    errOut,
		exportDir: ".",
		now:       time.Now,
	}
	if flow != nil {
		flow.Subscribe(v.progress)
	}
	return v
}

func (v *view) styles() styles { return newStyles(lipgloss.NewRenderer(v.errOut)) }

func (v *view) progress(ev upload.Event) {
	st := v.styles()
	switch ev.Phase {
	case upload.Uploading:
		fmt.Fprintf(v.errOut, "%s %s\n", st.Bold.Render(fmt.Sprintf("Uploading... %d%%", ev.Progress)), st.Muted.Render("Uploading your image to the cloud"))
	case upload.Analyzing:
		fmt.Fprintf(v.errOut, "%s %s\n", st.Bold.Render(fmt.Sprintf("Analyzing Image... %d%%", ev.Progress)), st.Muted.Render("AI is reverse-engineering the editing pipeline"))
	}
}

func (v *view) toast(title, desc string, failed bool) {
	st := v.styles()
	head := st.Success.Render("✓ " + title)
	if failed {
		head = st.Error.Render("✗ " + title)
	}
	fmt.Fprintf(v.errOut, "%s %s\n", head, desc)
}

// drop handles one drop or selection of paths and waits for the flow to end.
func (v *view) drop(ctx context.Context, paths []string) error {
	files := filesFromPaths(paths, func(p string, err error) {
		fmt.Fprintf(v.errOut, "%s %v\n", v.styles().Muted.Render("skip "+p+":"), err)
	})

	task, err := v.flow.Start(ctx, files)
	if err != nil {
		if errors.Is(err, upload.ErrNotImage) {
			v.toast("Invalid file", upload.MsgNotImage, true)
		} else {
			v.toast("Error", err.Error(), true)
		}
		return err
	}

	res := <-task
	if res.Err != nil {
		v.toast("Error", res.Err.Error(), true)
		return res.Err
	}
	if !v.session.Complete(res) {
		err := errors.New("analysis returned no result")
		v.toast("Error", err.Error(), true)
		return err
	}
	n := len(res.Outcome.Analysis.Report().Pipeline)
	v.toast("Analysis complete!", fmt.Sprintf("Identified %d editing steps", n), false)
	return v.present()
}

// present renders the session's analysis and exports it when asked.
func (v *view) present() error {
	res, imageURL, id, ok := v.session.Current()
	if !ok {
		return errors.New("no analysis to show")
	}

	if v.asJSON {
		if err := analysis.Export(v.out, res); err != nil {
			return err
		}
	} else if err := RenderResults(v.out, res, imageURL); err != nil {
		return err
	}
	if id != "" {
		fmt.Fprintf(v.errOut, "%s %s\n", v.styles().Muted.Render("Saved as"), id)
	}

	if v.export {
		path, err := v.writeExport(res)
		if err != nil {
			return err
		}
		fmt.Fprintf(v.errOut, "%s %s\n", v.styles().Muted.Render("Exported to"), path)
	}
	return nil
}

func (v *view) writeExport(res analysis.Result) (string, error) {
	path := filepath.Join(v.exportDir, analysis.ExportFileName(v.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := analysis.Export(f, res); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// loop reads one path per line and analyzes each in turn. A failure is
// reported and the loop goes on; an empty line or EOF ends it.
func (v *view) loop(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(v.errOut, v.styles().Title.Render("Drop an image path")+" (empty line to quit): ")
		if !sc.Scan() {
			fmt.Fprintln(v.errOut)
			return sc.Err()
		}
		line := strings.Trim(strings.TrimSpace(sc.Text()), `"'`)
		if line == "" {
			return nil
		}
		v.session.Reset()
		_ = v.drop(ctx, []string{line})
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
