package ranking

import (
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/forestrank/pkg/errors"
)

// WriteBarChart saves a bar chart of one score channel to path. The image
// format follows the file extension (.png, .svg, .pdf).
func (r *Ranking) WriteBarChart(path string, channel int) error {
	if len(r.Entries) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "ranking chart")
	}
	values := make(plotter.Values, len(r.Entries))
	names := make([]string, len(r.Entries))
	for i, e := range r.Entries {
		if channel < 0 || channel >= len(e.Scores) {
			return errors.NewValidationError("channel", "score channel out of range", channel)
		}
		values[i] = e.Scores[channel]
		names[i] = e.Attribute
	}

	p := plot.New()
	p.Title.Text = r.Description
	p.Y.Label.Text = "importance"

	bars, err := plotter.NewBarChart(values, vg.Points(16))
	if err != nil {
		return errors.Wrap(err, "build bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)

	width := vg.Length(len(names))*vg.Points(24) + 2*vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}
