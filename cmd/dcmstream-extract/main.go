package main

import (
	"fmt"
	"os"
	"path/filepath"

	ds "github.com/b71729/dcmstream"
)

/*
===============================================================================
    Util: Extract Encoded Element
===============================================================================
*/

var baseFile = filepath.Base(os.Args[0])

func main() {
	if len(os.Args) != 3 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		fmt.Printf("usage: %s in_file (gggg,eeee)\n", baseFile)
		os.Exit(1)
	}
	inFile := os.Args[1]
	tag, err := ds.ParseTag(os.Args[2])
	if err != nil {
		ds.Fatalf("%v", err)
	}

	stat, err := os.Stat(inFile)
	if err != nil {
		ds.Fatalf(`failed to stat "%s": %v`, inFile, err)
	}
	if stat.IsDir() {
		ds.Fatalf("%s is a directory. please specify one file.", inFile)
	}

	// nested elements may share the tag, so keep every match and pick the top-level one by offset
	matches := make(map[int64][]byte)
	cfg := ds.GetConfig()
	cfg.HookMode = ds.HookSync
	cfg.Hook = ds.HookFunc(func(raw []byte, el *ds.Element) error {
		if el.Tag == tag {
			matches[el.Offset] = raw
		}
		return nil
	})
	dcm, err := ds.ParseFile(inFile, cfg)
	if err != nil {
		ds.Fatalf("error parsing dicom: %v", err)
	}
	element, found := dcm.GetElement(tag)
	if !found {
		ds.Fatalf("tag %s could not be found in file %s", tag, inFile)
	}
	offset := element.Offset
	encoded := matches[offset]

	for _, line := range element.Describe(0) {
		fmt.Println(line)
	}
	fmt.Printf("\nOffset: 0x%X\nContents (%d bytes):\n\n[]byte{", offset, len(encoded))
	for i, b := range encoded {
		if i+1 == len(encoded) {
			fmt.Printf("0x%02X", b)
			break
		}
		fmt.Printf("0x%02X, ", b)
	}
	fmt.Printf("}\n\n")
}
