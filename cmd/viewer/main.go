// Command viewer dumps the chat store as a table, for debugging a live
// or copied data directory. Read-only: it bypasses the lock guard and
// never writes.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or participant:)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "From", "To", "Type", "Time", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var doc map[string]any
				if err := json.Unmarshal(v, &doc); err != nil {
					fmt.Printf("Error unmarshaling key %s: %v\n", string(item.Key()), err)
					return nil
				}
				table.Append(toRow(string(item.Key()), doc))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
}

func toRow(key string, doc map[string]any) []string {
	// Participant documents have no "type"; render their liveness instead.
	if _, ok := doc["lastStatus"]; ok {
		return []string{
			key,
			str(doc["name"]),
			"",
			color.Cyan.Sprint("participant"),
			lastSeen(doc["lastStatus"]),
			"",
		}
	}
	return []string{
		key,
		str(doc["from"]),
		str(doc["to"]),
		colorizeType(str(doc["type"])),
		str(doc["time"]),
		str(doc["text"]),
	}
}

func colorizeType(messageType string) string {
	switch messageType {
	case "status":
		return color.Yellow.Sprint(messageType)
	case "private_message":
		return color.Red.Sprint(messageType)
	default:
		return color.Green.Sprint(messageType)
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func lastSeen(v any) string {
	millis, ok := v.(float64)
	if !ok {
		return ""
	}
	return time.UnixMilli(int64(millis)).UTC().Format(time.TimeOnly)
}
