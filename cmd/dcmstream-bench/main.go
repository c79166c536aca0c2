package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	ds "github.com/b71729/dcmstream"
)

/*
===============================================================================
    Util: Simulate Load Over Time
===============================================================================
*/

var baseFile = filepath.Base(os.Args[0])

func check(err error) {
	if err != nil {
		ds.Fatalf("error: %v", err)
	}
}

func usage() {
	fmt.Printf("usage: %s dir [duration]\n", baseFile)
	fmt.Println("repeatedly decodes randomly chosen files from dir, reporting throughput every 3 seconds")
	os.Exit(1)
}

func main() {
	cfg := ds.GetConfig()
	if len(os.Args) < 2 || len(os.Args) > 3 || os.Args[1] == "--help" || os.Args[1] == "-h" {
		usage()
	}
	var duration time.Duration
	if len(os.Args) == 3 {
		var err error
		duration, err = time.ParseDuration(os.Args[2])
		check(err)
	}

	var (
		files []string
		mu    sync.Mutex
	)
	check(ds.ConcurrentlyWalkDir(os.Args[1], func(file string) {
		mu.Lock()
		files = append(files, file)
		mu.Unlock()
	}))
	if len(files) == 0 {
		check(fmt.Errorf("no files found in %q", os.Args[1]))
	}

	var nfiles, nbytes, nfailed int64
	start := time.Now()
	report := func() {
		elapsed := time.Since(start).Seconds()
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		ds.Infof("files/s=%v, MB/s=%.2f, failed=%d, memory: %d kB / %d kB",
			math.Round(float64(nfiles)/elapsed), float64(nbytes)/elapsed/1e6, nfailed, memStats.Alloc/1024, memStats.Sys/1024)
	}
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for duration == 0 || time.Since(start) < duration {
		select {
		case <-ticker.C:
			report()
		default:
		}
		path := files[rand.Intn(len(files))]
		if _, err := ds.ParseFile(path, cfg); err != nil {
			ds.Debugf("%v", err)
			nfailed++
			continue
		}
		if stat, err := os.Stat(path); err == nil {
			nbytes += stat.Size()
		}
		nfiles++
	}
	report()
}
