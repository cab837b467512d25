// Package reader provides access to event datasets stored as Apache
// Parquet files.
//
// A dataset is a directory holding one parquet file per analysis channel
// and a msgpack metadata file:
//
//	mc_ttbar/
//	    Ele4J.parquet
//	    Muon4J.parquet
//	    meta.msgpack
//
// Each parquet row is one event. Object collections are repeated columns
// (Electron_Pt, Jet_CSVScore, ...) and event quantities are scalar columns
// (MET_Pt, Misc_eventNumber, ...). Numeric columns of any physical type
// are exposed as float64.
//
// # Basic Usage
//
// Opening one partition of a channel:
//
//	ds, err := reader.OpenDataset("data/mc_ttbar")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tree, err := ds.OpenTree("Ele4J", 0, 1000)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tree.Close()
//
//	pt, err := tree.Column("Electron_Pt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for entry := 0; entry < tree.Len(); entry++ {
//	    fmt.Println(pt.Row(entry))
//	}
//
// Columns are read from the file the first time they are requested and
// stay in memory for the lifetime of the Tree. A Tree is not safe for
// concurrent use; open one per worker.
//
// # Inputs
//
// ExpandInputs resolves doublestar glob patterns ("data/**/mc_*") to
// dataset directories.
package reader
