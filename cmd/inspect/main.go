// Command inspect dumps the contents of a tripsync database by key prefix.
// Useful for debugging a replica or server store offline.
package main

import (
	"flag"
	"fmt"
	"os"

	"tripsync/pkg/logger"
	"tripsync/pkg/store"
)

func main() {
	var (
		path   = flag.String("path", "", "database directory to open")
		prefix = flag.String("prefix", "", "key prefix to dump (empty dumps every entity prefix)")
		values = flag.Bool("values", true, "print values alongside keys")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}
	logger.Init("error")

	st, err := store.Open(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer st.Close()

	prefixes := []string{*prefix}
	if *prefix == "" {
		prefixes = append([]string{}, store.EntityPrefixes...)
		prefixes = append(prefixes, store.ClientPrefix, "sys/")
	}

	total := 0
	err = st.View(func(tx store.ReadTx) error {
		for _, p := range prefixes {
			err := tx.Scan(p, func(key string, value []byte) error {
				if *values {
					fmt.Printf("%s\t%s\n", key, value)
				} else {
					fmt.Println(key)
				}
				total++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", total)
}
