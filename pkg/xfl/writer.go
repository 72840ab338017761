package xfl

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zip"
)

// Creator is written into DOMDocument's creatorInfo attribute.
var Creator = "sc2fla"

const publishSettings = `<flash_profiles>
<flash_profile version="1.0" name="Default" current="true">
  <PublishFormatProperties enabled="true">
    <defaultNames>1</defaultNames>
    <flash>1</flash>
    <html>0</html>
  </PublishFormatProperties>
</flash_profile>
</flash_profiles>
`

const metadataXML = `<?xml version="1.0" encoding="UTF-8"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
  <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
    <rdf:Description rdf:about="" xmlns:xmp="http://ns.adobe.com/xap/1.0/">
      <xmp:CreatorTool>%s</xmp:CreatorTool>
    </rdf:Description>
  </rdf:RDF>
</x:xmpmeta>
`

// Entries renders the document to its XFL file tree, keyed by slash
// separated path.
func (d *Document) Entries() (map[string][]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	files := make(map[string][]byte)

	dom, err := marshal(d.dom(Creator))
	if err != nil {
		return nil, fmt.Errorf("encoding DOMDocument: %w", err)
	}
	files["DOMDocument.xml"] = dom
	files["PublishSettings.xml"] = []byte(publishSettings)
	files["META-INF/metadata.xml"] = []byte(fmt.Sprintf(metadataXML, Creator))

	for _, s := range d.Symbols {
		data, err := marshal(s.dom())
		if err != nil {
			return nil, fmt.Errorf("encoding symbol %s: %w", s.Name, err)
		}
		files["LIBRARY/"+SymbolPath(s.Name)] = data
	}

	for _, b := range d.Bitmaps {
		var buf bytes.Buffer
		if err := png.Encode(&buf, b.Image); err != nil {
			return nil, fmt.Errorf("encoding bitmap %s: %w", b.Name, err)
		}
		files["LIBRARY/"+BitmapPath(b.Name)] = buf.Bytes()
	}
	return files, nil
}

// entryOrder lists the document first so readers can sniff the archive.
func entryOrder(files map[string][]byte) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		if name != "DOMDocument.xml" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return append([]string{"DOMDocument.xml"}, names...)
}

// WriteFLA writes the document as a .fla archive. The archive is built in
// a temporary file next to path and renamed into place, so a failed write
// never leaves a partial file behind.
func WriteFLA(path string, d *Document) error {
	files, err := d.Entries()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	for _, name := range entryOrder(files) {
		w, err := zw.Create(name)
		if err != nil {
			tmp.Close()
			return fmt.Errorf("adding %s: %w", name, err)
		}
		if _, err := w.Write(files[name]); err != nil {
			tmp.Close()
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return fmt.Errorf("finishing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// WriteXFL writes the document unpacked into dir, with the <name>.xfl
// marker file Animate opens. The tree is built in a temporary directory
// next to dir and renamed into place; an existing dir is replaced only
// once the new tree is complete.
func WriteXFL(dir string, d *Document) error {
	files, err := d.Entries()
	if err != nil {
		return err
	}
	files[filepath.Base(dir)+".xfl"] = []byte("PROXY-CS5")

	tmp, err := os.MkdirTemp(filepath.Dir(dir), "."+filepath.Base(dir)+".*")
	if err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0755); err != nil {
		return fmt.Errorf("creating temp directory: %w", err)
	}

	for _, name := range entryOrder(files) {
		p := filepath.Join(tmp, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("creating %s: %w", filepath.Dir(name), err)
		}
		if err := os.WriteFile(p, files[name], 0644); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	var old string
	if _, err := os.Lstat(dir); err == nil {
		old = tmp + ".old"
		if err := os.Rename(dir, old); err != nil {
			return fmt.Errorf("replacing %s: %w", dir, err)
		}
	}
	if err := os.Rename(tmp, dir); err != nil {
		if old != "" {
			os.Rename(old, dir)
		}
		return fmt.Errorf("replacing %s: %w", dir, err)
	}
	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

func marshal(v any) ([]byte, error) {
	data, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), data...), nil
}
