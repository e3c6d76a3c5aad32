package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/diillson/aws-macie-tagger-go/internal/domain/entity"
	"github.com/diillson/aws-macie-tagger-go/internal/shared/types"
)

var (
	gzipMagic   = []byte{0x1f, 0x8b}
	zstdMagic   = []byte{0x28, 0xb5, 0x2f, 0xfd}
	snappyMagic = []byte("\xff\x06\x00\x00sNaPpY")
)

// ParsedRecord é um registro lido de um objeto de resultados. Line é a linha
// (ou a posição no stream) de origem; Err != nil indica registro malformado.
type ParsedRecord struct {
	Line    int
	Finding entity.Finding
	Err     error
}

// maxDecompressedSize limita o conteúdo descomprimido de um objeto de
// resultados, o mesmo teto aplicado aos bytes lidos do S3.
var maxDecompressedSize = 128 << 20

// decompress detecta pelos magic bytes as compressões suportadas pelo
// Firehose e devolve o conteúdo descomprimido.
func decompress(data []byte) ([]byte, error) {
	var r io.Reader
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		gz, gzErr := gzip.NewReader(bytes.NewReader(data))
		if gzErr != nil {
			return nil, fmt.Errorf("error opening gzip stream: %w", gzErr)
		}
		defer gz.Close()
		r = gz
	case bytes.HasPrefix(data, zstdMagic):
		zr, zErr := zstd.NewReader(bytes.NewReader(data))
		if zErr != nil {
			return nil, fmt.Errorf("error opening zstd stream: %w", zErr)
		}
		defer zr.Close()
		r = zr
	case bytes.HasPrefix(data, snappyMagic):
		r = s2.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}

	out, err := io.ReadAll(io.LimitReader(r, int64(maxDecompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("error decompressing results object: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return nil, fmt.Errorf("decompressed results object exceeds %d bytes", maxDecompressedSize)
	}
	return out, nil
}

// ParseFindings lê um objeto de resultados. O Firehose grava um JSON por linha
// (ou objetos concatenados); um JSON único com indentação também é aceito.
// Registros malformados são devolvidos com Err preenchido e não interrompem
// a leitura dos demais.
func ParseFindings(data []byte) ([]ParsedRecord, error) {
	data, err := decompress(data)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	if records, ok := parseStream(data); ok {
		return records, nil
	}
	return parseLines(data), nil
}

// parseStream decodifica o conteúdo inteiro como um stream de valores JSON.
// Um valor com tipo errado já foi consumido pelo decoder, então vira um
// registro malformado e a leitura segue. Erro de sintaxe retorna ok=false
// para que parseLines isole o trecho ruim.
func parseStream(data []byte) ([]ParsedRecord, bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var records []ParsedRecord
	for n := 1; ; n++ {
		var ev entity.FindingEvent
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			return records, true
		}
		if isTypeError(err) {
			records = append(records, malformed(n, err))
			continue
		}
		if err != nil {
			return nil, false
		}
		records = append(records, ParsedRecord{Line: n, Finding: ev.Normalize()})
	}
}

// parseLines decodifica linha a linha. Dentro de uma linha só um erro de
// sintaxe encerra a leitura, pois o decoder não sabe onde o próximo valor começa.
func parseLines(data []byte) []ParsedRecord {
	var records []ParsedRecord
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(line))
		for {
			var ev entity.FindingEvent
			err := dec.Decode(&ev)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				records = append(records, malformed(i+1, err))
				if isTypeError(err) {
					continue
				}
				break
			}
			records = append(records, ParsedRecord{Line: i + 1, Finding: ev.Normalize()})
		}
	}
	return records
}

func isTypeError(err error) bool {
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

func malformed(line int, err error) ParsedRecord {
	return ParsedRecord{
		Line: line,
		Err:  fmt.Errorf("%w: line %d: %v", types.ErrMalformedRecord, line, err),
	}
}
