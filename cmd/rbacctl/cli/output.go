package cli

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/pterm/pterm"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	data := make(pterm.TableData, 0, len(rows)+1)
	data = append(data, header)
	data = append(data, rows...)
	return pterm.DefaultTable.WithHasHeader().WithWriter(w).WithData(data).Render()
}

func section(w io.Writer, title string) {
	pterm.DefaultSection.WithWriter(w).Println(title)
}

// report prints msg as a success line, or as {"message": msg} in JSON mode.
func (p *program) report(w io.Writer, msg string) error {
	if p.asJSON {
		return printJSON(w, map[string]string{"message": msg})
	}
	pterm.Success.WithWriter(w).Println(msg)
	return nil
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
