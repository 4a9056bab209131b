package csvtable_test

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/oleg578/csvtable"
)

func ExampleReadRowsByKey() {
	dir, err := os.MkdirTemp("", "csvtable-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "inventory.csv")
	table := []csvtable.Row{
		{"sku": "A-1", "name": "bolt, hex", "qty": "120"},
		{"sku": "B-7", "name": "washer", "qty": "15"},
	}
	if err := csvtable.WriteRows(path, table, []string{"sku", "name", "qty"}, ',', '"'); err != nil {
		log.Fatal(err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(string(content))

	bySKU, err := csvtable.ReadRowsByKey(path, "sku", ',', '"')
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(bySKU["A-1"]["name"], bySKU["B-7"]["qty"])
	// Output:
	// "sku","name","qty"
	// "A-1","bolt, hex",120
	// "B-7","washer",15
	// bolt, hex 15
}

func ExampleDecodeTable() {
	src := strings.NewReader("city;population\n'Rio; RJ';6748000\nLima;9751000\n")

	table, err := csvtable.DecodeTable(src, ';', '\'')
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(table.Fields)
	for _, row := range table.Rows {
		fmt.Printf("%s -> %s\n", row["city"], row["population"])
	}
	// Output:
	// [city population]
	// Rio; RJ -> 6748000
	// Lima -> 9751000
}

func ExampleEncodeRecords() {
	records := []map[string]any{
		{"item": "tea", "price": 3.5, "code": "042"},
	}
	err := csvtable.EncodeRecords(os.Stdout, records, []string{"item", "price", "code"}, ',', '"')
	if err != nil {
		log.Fatal(err)
	}
	// Output:
	// "item","price","code"
	// "tea",3.5,"042"
}
