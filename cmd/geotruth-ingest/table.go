package main

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"geotruth/internal/pipeline"
	"geotruth/internal/store"
)

func renderSummary(rep *pipeline.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Value"})
	tw.AppendRow(table.Row{"video_id", rep.VideoID})
	tw.AppendRow(table.Row{"file", rep.Video.Filename})
	tw.AppendRow(table.Row{"duration_s", fmtFloat(rep.Video.Duration, 3)})
	tw.AppendRow(table.Row{"gps_points", strconv.Itoa(rep.Points)})
	if rep.Track != nil {
		if km, ok := rep.Track.DistanceKm(); ok {
			tw.AppendRow(table.Row{"distance_km", fmtFloat(km, 3)})
		}
	}
	switch {
	case rep.Sync != nil:
		tw.AppendRow(table.Row{"sync", rep.Sync.Method.String() + " (" + fmtFloat(rep.Sync.Confidence, 2) + ")"})
		tw.AppendRow(table.Row{"offset_s", fmtFloat(rep.Sync.Offset, 3)})
	case rep.SyncError != "":
		tw.AppendRow(table.Row{"sync", "failed: " + rep.SyncError})
	default:
		tw.AppendRow(table.Row{"sync", "-"})
	}
	tw.AppendRow(table.Row{"events", strconv.Itoa(len(rep.Events))})
	tw.AppendRow(table.Row{"verified", strconv.Itoa(rep.Verified())})
	return tw.Render()
}

func renderEvents(events []store.Event) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"t (s)", "Type", "Lat", "Lon", "Country", "Timezone", "POIs", "Confidence"})
	for _, e := range events {
		row := table.Row{fmtFloat(e.Start, 1), e.Type, "-", "-", "-", "-", "0", "-"}
		if e.Lat != nil && e.Lon != nil {
			row[2], row[3] = fmtFloat(*e.Lat, 5), fmtFloat(*e.Lon, 5)
		}
		if b := e.Bundle; b != nil {
			if b.Location.Country != nil {
				row[4] = *b.Location.Country
			}
			if b.Location.Timezone != nil {
				row[5] = *b.Location.Timezone
			}
			row[6] = strconv.Itoa(len(b.POIs))
			row[7] = b.Confidence.String()
		}
		tw.AppendRow(row)
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func fmtFloat(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }
