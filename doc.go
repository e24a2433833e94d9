// Package dialectcsv is a dialect-configurable CSV codec: a streaming
// reader, a streaming writer and the arena allocator that backs both.
//
// # Architecture
//
// The codec is organised in layers:
//
//   - pkg/arena: bump allocator with nested checkpoint regions
//   - pkg/config: the Dialect value (delimiter, enclosure, header, BOM,
//     strictness flags) and YAML dialect profiles
//   - pkg/csv: line parser state machine, record reader and record writer
//   - pkg/fileio: file opening with compression by extension and optional
//     memory mapping
//   - internal/pipeline: reader to writer copy loop with transforms
//
// # Quick Start
//
// Read a semicolon separated file with a header row:
//
//	d := config.NewDialect()
//	d.Delimiter = ';'
//	d.Path = "people.csv"
//
//	r, err := csv.Open(d)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	for rec, err := range r.Records() {
//	    if err != nil {
//	        log.Printf("skipping: %v", err)
//	        continue
//	    }
//	    name, _ := rec.Get("name")
//	    fmt.Println(name)
//	}
//
// Write records with a byte-order mark:
//
//	d := config.NewWriterDialect()
//	d.Path = "out.csv.zst"
//	d.WriteBOM = true
//
//	w, err := csv.Create(d, []string{"name", "age", "city"})
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	err = w.WriteRecordMap([]string{"city", "name", "age"}, []string{"Boston", "Alice", "28"})
//
// # Memory
//
// A Reader owns two arenas. Headers live in a persistent arena for the life
// of the reader; each record lives in a temporary arena that is reset by the
// next call to Next, Rewind or Seek. Records must be copied out (Fields,
// Field, Map) before the reader moves on.
//
// # Command Line
//
//	go build -o bin/dialectcsv ./cmd/dialectcsv
//	./bin/dialectcsv count --delimiter ';' people.csv
//	./bin/dialectcsv convert --select name,city people.csv out.csv.gz
//	./bin/dialectcsv convert --compression zstd --level best people.csv out.dat
//	./bin/dialectcsv cat --format json-array --trace people.csv
package dialectcsv
