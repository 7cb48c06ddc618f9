package synth

import (
	"bytes"
	"fmt"
	"io"

	"qstrgen/internal/model"
	"qstrgen/internal/qstrdata"
)

// Emitter writes the flattened table.
type Emitter struct {
	Variant model.Variant
	// Name appears in the "Generated by" header of the schema variant.
	Name    string
	Encoder *qstrdata.Encoder
}

// Emit renders result completely before writing anything to w, so a failing
// record leaves no partial output behind.
func (e *Emitter) Emit(w io.Writer, result model.AnalysisResult) error {
	var buf bytes.Buffer
	if e.Variant == model.VariantSchema {
		if e.Encoder == nil {
			return fmt.Errorf("schema output needs an encoder")
		}
		fmt.Fprintf(&buf, "// Generated by %s\n", e.Name)
		fmt.Fprintf(&buf, "QDEF(MP_QSTR_%s, %s)\n", NullName, e.Encoder.Null())
	}

	for _, entry := range result.Entries {
		record, err := e.record(entry)
		if err != nil {
			return err
		}
		if entry.Unconditional || len(entry.Guards) == 0 {
			buf.WriteString(record)
			continue
		}
		for i, guard := range entry.Guards {
			directive := "elif"
			if i == 0 {
				directive = "if"
			}
			fmt.Fprintf(&buf, "#%s %s\n", directive, guard)
			buf.WriteString(record)
		}
		buf.WriteString("#endif\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func (e *Emitter) record(entry model.Entry) (string, error) {
	if e.Variant == model.VariantBare {
		return fmt.Sprintf("Q(%s)\n", entry.Name), nil
	}
	data, err := e.Encoder.Bytes(entry.Name)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("QDEF(MP_QSTR_%s, %s)\n", entry.Ident, data), nil
}
