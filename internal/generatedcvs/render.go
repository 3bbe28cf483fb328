package generatedcvs

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"html/template"
	"strings"
)

var htmlTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8" /><title>{{.Heading}}</title>` +
	`<style>body{font-family:Arial,Helvetica,sans-serif;max-width:880px;margin:2rem auto;padding:0 1.5rem;color:#0f172a;}` +
	`h1{font-size:2rem;margin-bottom:0.5rem;}h2{font-size:1.25rem;margin-top:1.5rem;margin-bottom:0.25rem;color:#1d4ed8;}` +
	`p{white-space:pre-wrap;line-height:1.6;}section{margin-bottom:1.5rem;border-bottom:1px solid #e2e8f0;padding-bottom:1rem;}</style>` +
	`</head><body><header><h1>{{.Heading}}</h1></header>` +
	`{{range .Sections}}<section><h2>{{.Name}}</h2><p>{{range $i, $line := .Lines}}{{if $i}}<br />{{end}}{{$line}}{{end}}</p></section>{{end}}` +
	`</body></html>`))

type htmlSection struct {
	Name  string
	Lines []string
}

func renderHTML(sections []exportSection, meta exportMeta) ([]byte, error) {
	heading := meta.heading()
	if heading == "" {
		heading = fallbackTitle
	}
	data := struct {
		Heading  string
		Sections []htmlSection
	}{Heading: heading}
	for _, s := range sections {
		data.Sections = append(data.Sections, htmlSection{Name: s.Name, Lines: splitLines(s.Text)})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

	docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

	docxDocumentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

	docxStyles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:rPr><w:sz w:val="22"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:after="120"/></w:pPr><w:rPr><w:b/><w:sz w:val="32"/><w:color w:val="111111"/></w:rPr></w:style>
<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/><w:pPr><w:spacing w:before="240" w:after="60"/></w:pPr><w:rPr><w:b/><w:sz w:val="24"/><w:color w:val="1F2937"/></w:rPr></w:style>
</w:styles>`
)

func renderDOCX(sections []exportSection, meta exportMeta) ([]byte, error) {
	document, err := documentXML(sections, meta)
	if err != nil {
		return nil, err
	}

	var output bytes.Buffer
	writer := zip.NewWriter(&output)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/_rels/document.xml.rels", []byte(docxDocumentRels)},
		{"word/styles.xml", []byte(docxStyles)},
		{"word/document.xml", document},
	}
	for _, p := range parts {
		if err := writeZipFile(writer, p.name, p.content); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return output.Bytes(), nil
}

func documentXML(sections []exportSection, meta exportMeta) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	if heading := meta.heading(); heading != "" {
		if err := writeParagraph(&body, "Heading1", heading); err != nil {
			return nil, err
		}
	}
	for _, s := range sections {
		if err := writeParagraph(&body, "Heading2", s.Name); err != nil {
			return nil, err
		}
		for _, line := range splitLines(s.Text) {
			if err := writeParagraph(&body, "", line); err != nil {
				return nil, err
			}
		}
	}

	body.WriteString(`<w:sectPr/></w:body></w:document>`)
	return body.Bytes(), nil
}

func writeParagraph(buf *bytes.Buffer, style, text string) error {
	buf.WriteString("<w:p>")
	if style != "" {
		buf.WriteString(`<w:pPr><w:pStyle w:val="` + style + `"/></w:pPr>`)
	}
	if strings.TrimSpace(text) != "" {
		buf.WriteString(`<w:r><w:t xml:space="preserve">`)
		if err := xml.EscapeText(buf, []byte(text)); err != nil {
			return err
		}
		buf.WriteString("</w:t></w:r>")
	}
	buf.WriteString("</w:p>")
	return nil
}

func writeZipFile(writer *zip.Writer, name string, content []byte) error {
	dst, err := writer.Create(name)
	if err != nil {
		return err
	}
	_, err = dst.Write(content)
	return err
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
