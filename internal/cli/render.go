package cli

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// RenderResults writes the results view for one analysis. Steps keep the
// order the model returned them in.
func RenderResults(w io.Writer, res analysis.Result, imageURL string) error {
	st := newStyles(lipgloss.NewRenderer(w))
	rep := res.Report()

	var b strings.Builder
	engine := rep.Metadata.Engine
	if engine == "" {
		engine = "unknown"
	}
	b.WriteString(st.Title.Render("Analysis Results") + "\n")
	b.WriteString(st.Muted.Render(fmt.Sprintf("Identified %d editing steps • Analyzed by %s", len(rep.Pipeline), engine)) + "\n")
	if imageURL != "" {
		b.WriteString(st.Label.Render("Image: ") + imageURL + "\n")
	}
	b.WriteString("\n" + st.Title.Render("Editing Pipeline") + "\n")

	for i, step := range rep.Pipeline {
		if i > 0 {
			b.WriteString("\n")
		}
		writeStep(&b, st, step)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeStep(b *strings.Builder, st styles, step analysis.Step) {
	order := "-"
	if step.StepOrder > 0 {
		order = strconv.Itoa(step.StepOrder)
	}
	name := step.Name
	if name == "" {
		name = "(unnamed step)"
	}

	fmt.Fprintf(b, "%s %s  %s  %s\n",
		st.Bold.Render("["+order+"]"),
		st.Bold.Render(name),
		st.Category(step.Category).Render(step.Category),
		st.Badge.Render(Confidence(step.Confidence)),
	)

	if len(step.Software) > 0 {
		b.WriteString("    " + st.Label.Render("Likely Software: ") + strings.Join(step.Software, ", ") + "\n")
	}
	if len(step.Parameters) > 0 {
		b.WriteString("    " + st.Label.Render("Estimated Parameters:") + "\n")
		for _, p := range step.Parameters {
			fmt.Fprintf(b, "      %s %s\n", st.Label.Render(ParamLabel(p.Name)+":"), p.Text())
		}
	}
}

// Confidence renders c in [0,1] as a whole percentage.
func Confidence(c *float64) string {
	if c == nil {
		return "confidence unknown"
	}
	return fmt.Sprintf("%d%% confident", int64(math.Round(*c*100)))
}

// ParamLabel shows snake_case keys with spaces.
func ParamLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
