// Command inspect dumps the contents of a diskuss BadgerDB store as tables,
// one collection at a time. Debugging aid; read-only.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/fxamacker/cbor/v2"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "", "Path to badger DB")
	collection := flag.String("collection", "discussions", "Collection to dump: users, discussions or messages")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("missing -db path")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	var prefix string
	var header []string
	var row func(doc map[string]any) []string

	switch *collection {
	case "users":
		prefix = "user:id:"
		header = []string{"ID", "Username", "Last Login"}
		row = func(doc map[string]any) []string {
			return []string{str(doc["id"]), str(doc["username"]), stamp(doc["last_login"])}
		}
	case "discussions":
		prefix = "disc:id:"
		header = []string{"ID", "Participants", "Group", "Messages"}
		row = func(doc map[string]any) []string {
			return []string{
				str(doc["id"]),
				strings.Join(strs(doc["participants"]), ", "),
				fmt.Sprintf("%v", doc["is_group"]),
				strconv.Itoa(len(strs(doc["messages"]))),
			}
		}
	case "messages":
		prefix = "msg:id:"
		header = []string{"ID", "Discussion", "Sender", "Text", "At"}
		row = func(doc map[string]any) []string {
			return []string{
				str(doc["id"]), str(doc["discussion_id"]),
				str(doc["sender_id"]), str(doc["text"]), stamp(doc["timestamp"]),
			}
		}
	default:
		log.Fatalf("unknown collection %q", *collection)
	}

	color.Bold.Printf("Collection %s (%s)\n", *collection, *dbPath)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	count := 0
	err = db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(prefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(v []byte) error {
				var doc map[string]any
				if err := cbor.Unmarshal(v, &doc); err != nil {
					// Keep dumping the rest of the collection.
					fmt.Printf("Error decoding key %s: %v\n", string(it.Item().Key()), err)
					return nil
				}
				table.Append(row(doc))
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
	color.Green.Printf("%d document(s)\n", count)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, str(item))
	}
	return out
}

func stamp(v any) string {
	if t, ok := v.(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%v", v)
}
