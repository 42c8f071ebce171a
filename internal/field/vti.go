package field

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ArrayName is the name of the exported point array.
const ArrayName = "spiralis"

// VTI encodings.
const (
	FormatBinary = "binary"
	FormatASCII  = "ascii"
)

type vtkFile struct {
	XMLName    xml.Name     `xml:"VTKFile"`
	Type       string       `xml:"type,attr"`
	Version    string       `xml:"version,attr"`
	ByteOrder  string       `xml:"byte_order,attr"`
	HeaderType string       `xml:"header_type,attr"`
	Image      vtkImageData `xml:"ImageData"`
}

type vtkImageData struct {
	WholeExtent string   `xml:"WholeExtent,attr"`
	Origin      string   `xml:"Origin,attr"`
	Spacing     string   `xml:"Spacing,attr"`
	Piece       vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	Extent    string       `xml:"Extent,attr"`
	PointData vtkPointData `xml:"PointData"`
	CellData  struct{}     `xml:"CellData"`
}

type vtkPointData struct {
	Scalars string       `xml:"Scalars,attr"`
	Array   vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type     string `xml:"type,attr"`
	Name     string `xml:"Name,attr"`
	Format   string `xml:"format,attr"`
	RangeMin string `xml:"RangeMin,attr"`
	RangeMax string `xml:"RangeMax,attr"`
	Data     string `xml:",chardata"`
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

// WriteVTI writes v as VTK XML ImageData with unit spacing and a single
// Float32 point array. Binary output is inline base64 with a UInt32 byte
// count encoded ahead of the payload, as VTK writes it.
func WriteVTI(w io.Writer, v *Volume, format string) error {
	if v.N <= 0 || len(v.Data) != v.N*v.N*v.N {
		return fmt.Errorf("volume of size %d does not match grid %d³", len(v.Data), v.N)
	}
	data := v.Float32()
	lo, hi := float32(math.Inf(1)), float32(math.Inf(-1))
	for _, x := range data {
		lo, hi = min(lo, x), max(hi, x)
	}

	var payload string
	switch format {
	case FormatBinary, "":
		format = FormatBinary
		raw := make([]byte, 4*len(data))
		for i, x := range data {
			binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(x))
		}
		header := make([]byte, 4)
		binary.LittleEndian.PutUint32(header, uint32(len(raw)))
		payload = base64.StdEncoding.EncodeToString(header) + base64.StdEncoding.EncodeToString(raw)
	case FormatASCII:
		var sb strings.Builder
		for i, x := range data {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(formatFloat(x))
		}
		payload = sb.String()
	default:
		return fmt.Errorf("unknown VTI format %q", format)
	}

	extent := fmt.Sprintf("0 %d 0 %d 0 %d", v.N-1, v.N-1, v.N-1)
	doc := vtkFile{
		Type: "ImageData", Version: "0.1", ByteOrder: "LittleEndian", HeaderType: "UInt32",
		Image: vtkImageData{
			WholeExtent: extent, Origin: "0 0 0", Spacing: "1 1 1",
			Piece: vtkPiece{
				Extent: extent,
				PointData: vtkPointData{
					Scalars: ArrayName,
					Array: vtkDataArray{
						Type: "Float32", Name: ArrayName, Format: format,
						RangeMin: formatFloat(lo), RangeMax: formatFloat(hi),
						Data: payload,
					},
				},
			},
		},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadVTI decodes a file written by WriteVTI.
func ReadVTI(r io.Reader) (*Volume, error) {
	var doc vtkFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	var n0, n1, n2, n3, n4, n5 int
	if _, err := fmt.Sscanf(doc.Image.WholeExtent, "%d %d %d %d %d %d", &n0, &n1, &n2, &n3, &n4, &n5); err != nil {
		return nil, fmt.Errorf("extent %q: %w", doc.Image.WholeExtent, err)
	}
	n := n1 - n0 + 1
	if n3-n2+1 != n || n5-n4+1 != n {
		return nil, fmt.Errorf("extent %q is not a cube", doc.Image.WholeExtent)
	}

	arr := doc.Image.Piece.PointData.Array
	v := &Volume{N: n, Data: make([]float64, 0, n*n*n)}
	switch arr.Format {
	case FormatBinary:
		text := strings.TrimSpace(arr.Data)
		// A 4-byte header encodes to 8 base64 characters.
		if len(text) < 8 {
			return nil, fmt.Errorf("binary payload too short")
		}
		header, err := base64.StdEncoding.DecodeString(text[:8])
		if err != nil {
			return nil, err
		}
		raw, err := base64.StdEncoding.DecodeString(text[8:])
		if err != nil {
			return nil, err
		}
		if size := binary.LittleEndian.Uint32(header); int(size) != len(raw) {
			return nil, fmt.Errorf("header announces %d bytes, payload has %d", size, len(raw))
		}
		for off := 0; off+4 <= len(raw); off += 4 {
			v.Data = append(v.Data, float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[off:]))))
		}
	case FormatASCII:
		for _, tok := range strings.Fields(arr.Data) {
			f, err := strconv.ParseFloat(tok, 32)
			if err != nil {
				return nil, err
			}
			v.Data = append(v.Data, f)
		}
	default:
		return nil, fmt.Errorf("unknown VTI format %q", arr.Format)
	}
	if len(v.Data) != n*n*n {
		return nil, fmt.Errorf("got %d samples for a %d³ grid", len(v.Data), n)
	}
	return v, nil
}
