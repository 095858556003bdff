// Package lotio reads lot tables and writes schedule and KPI tables as
// CSV. The core never sees these formats; it consumes validated lots only.
package lotio

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aseptiq/fillsched/core/model"
	"github.com/aseptiq/fillsched/core/validate"
)

// DateTimeFormat is used for schedule timestamps in exported tables.
const DateTimeFormat = "2006-01-02 15:04"

var idHeaders = []string{"lot id", "lotid", "lot_id"}

// ReadLots parses a lot table with columns "Lot ID", "Type" and "Vials"
// into raw records for preflight. Header matching is case-insensitive.
func ReadLots(path string) ([]validate.RawLot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty lot table", path)
	}

	idCol, typeCol, vialsCol := -1, -1, -1
	for i, h := range rows[0] {
		switch key := strings.ToLower(strings.TrimSpace(h)); {
		case contains(idHeaders, key):
			idCol = i
		case key == "type":
			typeCol = i
		case key == "vials":
			vialsCol = i
		}
	}
	if idCol < 0 || typeCol < 0 || vialsCol < 0 {
		return nil, fmt.Errorf("%s: lot table needs Lot ID, Type and Vials columns", path)
	}

	records := make([]validate.RawLot, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := validate.RawLot{}
		if idCol < len(row) {
			rec.ID = strings.TrimSpace(row[idCol])
		}
		if typeCol < len(row) {
			rec.Type = strings.TrimSpace(row[typeCol])
		}
		if vialsCol < len(row) {
			rec.Vials = strings.TrimSpace(row[vialsCol])
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: no lots found", path)
	}
	return records, nil
}

// ReadSequence reads a lot-id column in the desired fill order.
func ReadSequence(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty sequence table", path)
	}

	col := -1
	for i, h := range rows[0] {
		if contains(idHeaders, strings.ToLower(strings.TrimSpace(h))) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("%s: sequence table needs a Lot ID column", path)
	}

	var seq []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if id := strings.TrimSpace(row[col]); id != "" {
				seq = append(seq, id)
			}
		}
	}
	if len(seq) == 0 {
		return nil, fmt.Errorf("%s: sequence table contains no lot ids", path)
	}
	return seq, nil
}

// OrderLots returns lots ordered by the given id sequence. Lots missing
// from the sequence keep their original relative order at the end.
func OrderLots(lots []model.Lot, seq []string) []model.Lot {
	byID := make(map[string]model.Lot, len(lots))
	for _, l := range lots {
		byID[l.ID] = l
	}
	inSeq := make(map[string]bool, len(seq))
	ordered := make([]model.Lot, 0, len(lots))
	for _, id := range seq {
		if l, ok := byID[id]; ok && !inSeq[id] {
			ordered = append(ordered, l)
		}
		inSeq[id] = true
	}
	for _, l := range lots {
		if !inSeq[l.ID] {
			ordered = append(ordered, l)
		}
	}
	return ordered
}

// WriteSchedule writes the activity table for one schedule.
func WriteSchedule(path string, s *model.Schedule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Start", "End", "Hours", "Activity", "Lot ID", "Type", "Note"}); err != nil {
		return err
	}
	for _, a := range s.Activities {
		row := []string{
			a.Start.Format(DateTimeFormat),
			a.End.Format(DateTimeFormat),
			strconv.FormatFloat(a.Hours(), 'f', 2, 64),
			string(a.Kind),
			a.LotID,
			a.LotType,
			a.Note,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// KPIRow pairs a run name with its KPI summary for tabular export.
type KPIRow struct {
	Name string
	KPIs model.KPISet
}

// WriteKPIs writes one row per run, matching the schedule table's number
// formatting.
func WriteKPIs(path string, rows []KPIRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"Run", "Makespan (h)", "Total Clean (h)", "Total Changeover (h)",
		"Total Fill (h)", "Utilization", "Lots Scheduled", "Clean Blocks"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			r.Name,
			strconv.FormatFloat(r.KPIs.MakespanHours, 'f', 2, 64),
			strconv.FormatFloat(r.KPIs.CleanHours, 'f', 2, 64),
			strconv.FormatFloat(r.KPIs.ChangeoverHours, 'f', 2, 64),
			strconv.FormatFloat(r.KPIs.FillHours, 'f', 2, 64),
			strconv.FormatFloat(r.KPIs.Utilization, 'f', 3, 64),
			strconv.Itoa(r.KPIs.LotsScheduled),
			strconv.Itoa(r.KPIs.CleanBlocks),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// ParseStart parses a schedule start time in the exported table format.
func ParseStart(s string) (time.Time, error) {
	return time.Parse(DateTimeFormat, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
