package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sugawarayuuta/sonnet"

	"github.com/c360/staticfifo/errors"
	"github.com/c360/staticfifo/metric"
	"github.com/c360/staticfifo/pkg/buffer"
)

const int64Size = 8

// Report is the outcome of a replay.
type Report struct {
	Scenario string          `json:"scenario"`
	Steps    []StepResult    `json:"steps"`
	Buffers  []BufferReport  `json:"buffers"`
	Metrics  []metric.Sample `json:"metrics,omitempty"`

	// metricsText is the same registry in Prometheus text format, for the text report
	metricsText string
}

// BufferReport is the final state of one buffer.
type BufferReport struct {
	Name         string              `json:"name"`
	Policy       string              `json:"policy"`
	Capacity     int                 `json:"capacity"`
	Size         int                 `json:"size"`
	StorageBytes uint64              `json:"storage_bytes"`
	Contents     []int64             `json:"contents"`
	Stats        buffer.StatsSummary `json:"stats"`
}

// report collects the final state of every buffer, in configuration order.
func (p *player) report(scenario string, steps []StepResult) (*Report, error) {
	r := &Report{
		Scenario: scenario,
		Steps:    steps,
		Buffers:  make([]BufferReport, 0, len(p.cfg.Buffers)),
	}

	metricsEnabled := false
	for _, bc := range p.cfg.Buffers {
		buf := p.buffers[bc.Name]
		contents := buf.Contents()
		if contents == nil {
			contents = []int64{}
		}

		r.Buffers = append(r.Buffers, BufferReport{
			Name:         bc.Name,
			Policy:       bc.OverflowPolicy().String(),
			Capacity:     buf.Capacity(),
			Size:         buf.Size(),
			StorageBytes: uint64(buf.Capacity()) * int64Size,
			Contents:     contents,
			Stats:        buf.Stats().Summary(),
		})
		metricsEnabled = metricsEnabled || bc.Metrics
	}

	if metricsEnabled {
		samples, err := p.registry.Snapshot()
		if err != nil {
			return nil, errors.Wrap(err, "player", "report", "gather metrics")
		}
		r.Metrics = samples

		var text strings.Builder
		if err := p.registry.WriteText(&text); err != nil {
			return nil, errors.Wrap(err, "player", "report", "render metrics")
		}
		r.metricsText = text.String()
	}

	return r, nil
}

// writeReport renders r as text or JSON.
func writeReport(w io.Writer, r *Report, format string) error {
	if format == "json" {
		return writeJSON(w, r)
	}
	return writeText(w, r)
}

func writeJSON(w io.Writer, r *Report) error {
	data, err := sonnet.Marshal(r)
	if err != nil {
		return errors.WrapFatal(err, "report", "writeJSON", "encode report")
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func writeText(w io.Writer, r *Report) error {
	var b strings.Builder

	fmt.Fprintf(&b, "scenario %s: %s steps\n", r.Scenario, humanize.Comma(int64(len(r.Steps))))
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "  %-6s %-10s %-6s count=%d", humanize.Ordinal(s.Index+1), s.Buffer, s.Op, s.Count)
		if len(s.Values) > 0 {
			fmt.Fprintf(&b, " values=%v", s.Values)
		}
		if len(s.Dropped) > 0 {
			fmt.Fprintf(&b, " dropped=%v", s.Dropped)
		}
		if s.Error != "" {
			fmt.Fprintf(&b, " error=%q", s.Error)
		}
		b.WriteByte('\n')
	}

	for _, buf := range r.Buffers {
		st := buf.Stats
		fmt.Fprintf(&b, "\nbuffer %s (%s, %d/%d, %s)\n",
			buf.Name, buf.Policy, buf.Size, buf.Capacity, humanize.Bytes(buf.StorageBytes))
		fmt.Fprintf(&b, "  contents   %v\n", buf.Contents)
		fmt.Fprintf(&b, "  writes     %s\n", humanize.Comma(st.Writes))
		fmt.Fprintf(&b, "  reads      %s\n", humanize.Comma(st.Reads))
		fmt.Fprintf(&b, "  peeks      %s\n", humanize.Comma(st.Peeks))
		fmt.Fprintf(&b, "  overflows  %s\n", humanize.Comma(st.Overflows))
		fmt.Fprintf(&b, "  drops      %s (%s%%)\n",
			humanize.Comma(st.Drops), humanize.FormatFloat("#,###.##", st.DropRate*100))
		fmt.Fprintf(&b, "  max size   %s\n", humanize.Comma(st.MaxSize))
	}

	if r.metricsText != "" {
		b.WriteString("\nmetrics\n")
		b.WriteString(r.metricsText)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
