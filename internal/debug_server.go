package internal

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/henriquezago/poker-planning-be/domain"
)

//go:embed inspect.html
var templatesFS embed.FS

type InspectRow struct {
	Key           string
	SessionName   string
	Participants  string
	FinalEstimate string
	Detail        string
}

type RowMapper func(key string, val []byte) InspectRow
type StatsProvider func() map[string]any

// StartDebugServer serves a read-only HTML view over the raw store, for
// operators poking at a live instance. Never exposed beyond the debug port.
func StartDebugServer(db *badger.DB, port int, endpoint string, mapper RowMapper, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.ParseFS(templatesFS, "inspect.html"))

	if mapper == nil {
		mapper = SessionMapper
	}

	type pageData struct {
		Prefix string
		Items  []InspectRow
		Stats  map[string]any
	}

	mux.HandleFunc(endpoint, func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "session:"
		}

		data := pageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapper(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

// SessionMapper renders one stored session document as an inspect row.
// Documents that fail to decode are shown raw instead of hidden.
func SessionMapper(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:           key,
		SessionName:   "--",
		Participants:  "-",
		FinalEstimate: "unset",
		Detail:        "Size: " + strconv.Itoa(len(val)) + " bytes",
	}

	var session domain.Session
	if err := json.Unmarshal(val, &session); err != nil {
		row.SessionName = "<undecodable>"
		return row
	}

	row.SessionName = session.Name
	row.Participants = strconv.Itoa(len(session.Participants))
	if session.FinalEstimate != nil {
		row.FinalEstimate = strconv.FormatFloat(*session.FinalEstimate, 'f', -1, 64)
	}

	detail := ""
	for _, p := range session.Participants {
		estimate := "unset"
		if p.Estimate != nil {
			estimate = strconv.FormatFloat(*p.Estimate, 'f', -1, 64)
		}
		detail += fmt.Sprintf("%s=%s ", p.Name, estimate)
	}
	if detail != "" {
		row.Detail = detail
	}
	return row
}
