package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"

	"zchat/domain"
)

// Dumps the documents stored under a key prefix as a table. Handy when a
// counter or an index entry looks off and the REST surface hides it.
func main() {
	dbPath := flag.String("db", "/tmp/zchat/badger", "Path to badger DB")
	prefix := flag.String("prefix", "chat:", "Prefix to scan (user:, chat:, msg:)")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Updated", "Detail"})
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

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				kind, updated, detail := describe(key, v)
				table.Append([]string{key, kind, updated, detail})
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

// describe decodes the value for the document prefixes and falls back to the
// raw bytes for index entries, whose values are bare ids.
func describe(key string, value []byte) (kind, updated, detail string) {
	switch {
	case strings.HasPrefix(key, "user:"):
		var u domain.User
		if err := json.Unmarshal(value, &u); err != nil {
			return "USER", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		return "USER", u.UpdatedAt.Format("15:04:05"),
			fmt.Sprintf("%s <%s> friends=%d", u.FullName, u.Email, u.Friends.Len())

	case strings.HasPrefix(key, "chat:"):
		var c domain.Chat
		if err := json.Unmarshal(value, &c); err != nil {
			return "CHAT", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		kind = "PRIVATE"
		if c.IsGroup {
			kind = "GROUP"
		}
		return kind, c.UpdatedAt.Format("15:04:05"),
			fmt.Sprintf("%q members=%d active=%t", c.Name, c.Members.Len(), c.IsActive)

	case strings.HasPrefix(key, "msg:"):
		var m domain.Message
		if err := json.Unmarshal(value, &m); err != nil {
			return "MSG", "", fmt.Sprintf("unmarshal error: %v", err)
		}
		content := m.Content
		if len(content) > 40 {
			content = content[:40] + "..."
		}
		return string(m.Type), m.CreatedAt.Format("15:04:05"),
			fmt.Sprintf("from=%s %q", m.Sender, content)

	default:
		return "INDEX", "", string(value)
	}
}
