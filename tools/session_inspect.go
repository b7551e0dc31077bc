package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"github.com/henriquezago/poker-planning-be/domain"
)

// CLI dump of the session store. Opens the database read-only so it can run
// next to a live server.
func main() {
	dbPath := flag.String("db", "./data/sessions", "Path to badger DB")
	prefix := flag.String("prefix", "session:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Participants", "Estimates", "Final"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var session domain.Session
				if err := json.Unmarshal(v, &session); err != nil {
					fmt.Printf("Error decoding key %s: %v\n", string(item.Key()), err)
					return nil
				}

				names := lo.Map(session.Participants, func(p domain.Participant, _ int) string {
					return p.Name
				})
				estimates := lo.Map(session.Participants, func(p domain.Participant, _ int) string {
					if p.Estimate == nil {
						return "unset"
					}
					return strconv.FormatFloat(*p.Estimate, 'f', -1, 64)
				})

				final := "unset"
				if session.FinalEstimate != nil {
					final = strconv.FormatFloat(*session.FinalEstimate, 'f', -1, 64)
				}

				displayID := session.ID
				if len(displayID) > 8 {
					displayID = displayID[:8]
				}
				table.Append([]string{
					displayID,
					session.Name,
					fmt.Sprintf("%v", names),
					fmt.Sprintf("%v", estimates),
					final,
				})
				count++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("\n%d session(s)\n", count)
}
