// Command zstdcat decompresses zstd-compressed files to stdout, in the
// manner of zstdcat/zcat, plus a handful of extras that exist mainly to
// give the decoder library a realistic host: glob expansion, a persistent
// decoded-output cache, and a Prometheus metrics endpoint for long-running
// batch use.
package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/pebble/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	zstd "github.com/facebook/zstd-sub003"
)

var (
	metricFilesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zstdcat_files_total",
		Help: "Files processed by zstdcat.",
	})
	metricBytesOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zstdcat_decoded_bytes_total",
		Help: "Bytes written to stdout by zstdcat.",
	})
	metricCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "zstdcat_cache_hits_total",
		Help: "Decodes served from --cache-dir instead of re-running.",
	})
)

func main() {
	var (
		checksum    = flag.Bool("checksum", false, "validate content checksums")
		dictPath    = flag.String("dict", "", "path to a zstd dictionary file")
		cacheDir    = flag.String("cache-dir", "", "persist decoded output here, keyed by input content hash")
		metricsAddr = flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address until all files are processed")
		mmapInput   = flag.Bool("mmap", false, "memory-map input files instead of reading them")
	)
	flag.Parse()

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			log.Printf("metrics listening on %s", *metricsAddr)
			log.Println(http.ListenAndServe(*metricsAddr, mux))
		}()
	}

	var opts []zstd.Option
	if *checksum {
		opts = append(opts, zstd.WithChecksumValidation())
	}
	if *dictPath != "" {
		raw, err := os.ReadFile(*dictPath)
		if err != nil {
			log.Fatal(err)
		}
		dict, err := zstd.NewDictionary(raw)
		if err != nil {
			log.Fatalf("parsing dictionary %s: %v", *dictPath, err)
		}
		opts = append(opts, zstd.WithDictionary(dict))
	}
	dec := zstd.NewDecoder(opts...)

	var store *pebble.DB
	if *cacheDir != "" {
		db, err := pebble.Open(*cacheDir, &pebble.Options{})
		if err != nil {
			log.Fatalf("opening cache dir %s: %v", *cacheDir, err)
		}
		defer db.Close()
		store = db
	}

	paths, err := expandArgs(flag.Args())
	if err != nil {
		log.Fatal(err)
	}
	if len(paths) == 0 {
		log.Fatal("usage: zstdcat [flags] <file-or-glob>...")
	}

	for _, path := range paths {
		if err := catOne(dec, store, path, *mmapInput); err != nil {
			log.Fatalf("%s: %v", path, err)
		}
		metricFilesTotal.Inc()
	}
}

// expandArgs turns each argument into one or more file paths, treating any
// argument containing a glob metacharacter as a doublestar pattern (which,
// unlike filepath.Glob, supports ** for recursive directory matches).
func expandArgs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if !doublestar.ValidatePattern(a) || !containsMeta(a) {
			out = append(out, a)
			continue
		}
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", a, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}

func containsMeta(pattern string) bool {
	for _, r := range pattern {
		switch r {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}

func catOne(dec *zstd.Decoder, store *pebble.DB, path string, useMmap bool) error {
	raw, closeInput, err := readInput(path, useMmap)
	if err != nil {
		return err
	}
	defer closeInput()

	cacheKey := cacheKeyFor(raw)
	if store != nil {
		if cached, closer, err := store.Get(cacheKey); err == nil {
			defer closer.Close()
			metricCacheHits.Inc()
			n, err := os.Stdout.Write(cached)
			metricBytesOut.Add(float64(n))
			return err
		}
	}

	out, err := dec.Decompress(nil, raw)
	if err != nil {
		return err
	}
	if store != nil {
		if err := store.Set(cacheKey, out, pebble.Sync); err != nil {
			log.Printf("%s: caching decoded output: %v", path, err)
		}
	}
	n, err := os.Stdout.Write(out)
	metricBytesOut.Add(float64(n))
	return err
}

func cacheKeyFor(raw []byte) []byte {
	sum := sha256.Sum256(raw)
	return sum[:]
}

// readInput returns path's contents and a closer to release any resources
// held to back that slice. With useMmap, the file is memory-mapped rather
// than copied into the Go heap, which matters for batch jobs cat-ing many
// large compressed files where the decode itself dominates anyway.
func readInput(path string, useMmap bool) ([]byte, func(), error) {
	if !useMmap {
		raw, err := os.ReadFile(path)
		return raw, func() {}, err
	}
	return mmapFile(path)
}
