package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"

	ds "github.com/b71729/dcmstream"
)

/*
===============================================================================
    Util: View DICOM File
===============================================================================
*/

var baseFile = filepath.Base(os.Args[0])

func check(err error) {
	if err != nil {
		ds.Fatalf("error: %v", err)
	}
}

func usage() {
	fmt.Printf("usage: %s file_or_dir\n", baseFile)
	fmt.Println("configuration is read from DCMSTREAM_* environment variables, or the YAML file named by DCMSTREAM_CONFIG")
	os.Exit(1)
}

func main() {
	cfg := ds.GetConfig()
	if len(os.Args) != 2 || os.Args[1] == "--help" || os.Args[1] == "-h" {
		usage()
	}
	stat, err := os.Stat(os.Args[1])
	check(err)
	if !stat.IsDir() {
		dcm, err := ds.ParseFile(os.Args[1], cfg)
		check(err)
		fmt.Printf("Transfer syntax: %s\n", dcm.TransferSyntax)
		var elements []*ds.Element
		for _, set := range []*ds.DataSet{dcm.Meta, dcm.DataSet} {
			for _, el := range set.Elements() {
				elements = append(elements, el)
			}
		}
		sort.Sort(ds.ByTag(elements))
		for _, element := range elements {
			for _, line := range element.Describe(0) {
				fmt.Println(line)
			}
		}
		return
	}

	var errorCount, successCount, elementCount int64
	cfg.Hook = ds.HookFunc(func(raw []byte, el *ds.Element) error {
		atomic.AddInt64(&elementCount, 1)
		return nil
	})
	err = ds.ConcurrentlyWalkDir(os.Args[1], func(path string) {
		_, err := ds.ParseFile(path, cfg)
		basePath := filepath.Base(path)
		if err != nil {
			ds.Errorf(`error parsing "%s": %v`, basePath, err)
			atomic.AddInt64(&errorCount, 1)
			return
		}
		atomic.AddInt64(&successCount, 1)
		ds.Debugf(`parsed "%s"`, basePath)
	})
	check(err)
	if errorCount == 0 {
		ds.Infof("parsed %d files (%d elements) without errors", successCount, elementCount)
	} else {
		ds.Infof("parsed %d files (%d elements) without errors, and failed to parse %d files", successCount, elementCount, errorCount)
	}
}
