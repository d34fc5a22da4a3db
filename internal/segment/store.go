package segment

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vexsearch/mergebench/internal/schema"
)

// Compression selects the doc store block codec.
type Compression string

const (
	CompressionZstd Compression = "zstd"
	CompressionLZ4  Compression = "lz4"
	CompressionNone Compression = "none"
)

// IsValid returns true if c is a known codec.
func (c Compression) IsValid() bool {
	switch c {
	case CompressionZstd, CompressionLZ4, CompressionNone:
		return true
	default:
		return false
	}
}

func (c Compression) code() byte {
	switch c {
	case CompressionLZ4:
		return 1
	case CompressionZstd:
		return 2
	default:
		return 0
	}
}

func compressionFromCode(b byte) (Compression, error) {
	switch b {
	case 0:
		return CompressionNone, nil
	case 1:
		return CompressionLZ4, nil
	case 2:
		return CompressionZstd, nil
	default:
		return "", fmt.Errorf("%w: unknown compression code %d", ErrCorrupt, b)
	}
}

const (
	storeMagic   = "STOR"
	storeVersion = 1

	// storeBlockSize is the uncompressed size at which a block is cut.
	storeBlockSize = 16 * 1024
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func compressBlock(data []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), nil
	case CompressionLZ4:
		out := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 || n >= len(data) {
			// incompressible; stored raw and recognized by equal sizes
			return data, nil
		}
		return out[:n], nil
	default:
		return data, nil
	}
}

func decompressBlock(data []byte, c Compression, size uint32) ([]byte, error) {
	switch c {
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out, nil
	case CompressionLZ4:
		if uint32(len(data)) == size {
			return data, nil
		}
		out := make([]byte, size)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return out[:n], nil
	default:
		return data, nil
	}
}

// encodeDocument marshals the stored fields of doc as a protobuf Struct whose
// values are string lists.
func encodeDocument(s *schema.Schema, doc *schema.Document) ([]byte, error) {
	fields := make(map[string]*structpb.Value)
	for _, name := range doc.FieldNames() {
		f, ok := s.Field(name)
		if !ok || !f.Stored {
			continue
		}
		vals := doc.Get(name)
		list := make([]*structpb.Value, len(vals))
		for i, v := range vals {
			list[i] = structpb.NewStringValue(v)
		}
		fields[name] = structpb.NewListValue(&structpb.ListValue{Values: list})
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(&structpb.Struct{Fields: fields})
}

func decodeDocument(data []byte) (*schema.Document, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	doc := schema.NewDocument()
	for name, v := range st.GetFields() {
		for _, item := range v.GetListValue().GetValues() {
			doc.Add(name, item.GetStringValue())
		}
	}
	return doc, nil
}

// encodeStore writes encoded documents as compressed blocks.
//
// Layout: magic, version, codec byte, numDocs, numBlocks,
// {rawSize, dataSize, data} per block. A block holds length-prefixed docs.
func encodeStore(docs [][]byte, c Compression) ([]byte, error) {
	var blocks [][]byte
	var rawSizes []uint32

	var block []byte
	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		data, err := compressBlock(block, c)
		if err != nil {
			return err
		}
		blocks = append(blocks, data)
		rawSizes = append(rawSizes, uint32(len(block)))
		block = nil
		return nil
	}

	for _, d := range docs {
		block = binary.LittleEndian.AppendUint32(block, uint32(len(d)))
		block = append(block, d...)
		if len(block) >= storeBlockSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	out := append([]byte(nil), storeMagic...)
	out = binary.LittleEndian.AppendUint32(out, storeVersion)
	out = append(out, c.code())
	out = binary.LittleEndian.AppendUint32(out, uint32(len(docs)))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(blocks)))
	for i, b := range blocks {
		out = binary.LittleEndian.AppendUint32(out, rawSizes[i])
		out = binary.LittleEndian.AppendUint32(out, uint32(len(b)))
		out = append(out, b...)
	}
	return out, nil
}

// decodeStore returns the encoded documents of a store file.
func decodeStore(data []byte) ([][]byte, error) {
	if len(data) < 17 || string(data[:4]) != storeMagic {
		return nil, fmt.Errorf("%w: bad store header", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(data[4:8]); v != storeVersion {
		return nil, fmt.Errorf("%w: unsupported store version %d", ErrCorrupt, v)
	}
	c, err := compressionFromCode(data[8])
	if err != nil {
		return nil, err
	}
	numDocs := binary.LittleEndian.Uint32(data[9:13])
	numBlocks := binary.LittleEndian.Uint32(data[13:17])

	docs := make([][]byte, 0, numDocs)
	off := 17
	for i := uint32(0); i < numBlocks; i++ {
		if off+8 > len(data) {
			return nil, fmt.Errorf("%w: truncated store block header", ErrCorrupt)
		}
		rawSize := binary.LittleEndian.Uint32(data[off:])
		size := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += 8
		if off+size > len(data) {
			return nil, fmt.Errorf("%w: truncated store block", ErrCorrupt)
		}
		block, err := decompressBlock(data[off:off+size], c, rawSize)
		if err != nil {
			return nil, err
		}
		off += size

		for p := 0; p < len(block); {
			if p+4 > len(block) {
				return nil, fmt.Errorf("%w: truncated document length", ErrCorrupt)
			}
			n := int(binary.LittleEndian.Uint32(block[p:]))
			p += 4
			if p+n > len(block) {
				return nil, fmt.Errorf("%w: truncated document", ErrCorrupt)
			}
			docs = append(docs, block[p:p+n])
			p += n
		}
	}
	if uint32(len(docs)) != numDocs {
		return nil, fmt.Errorf("%w: store holds %d documents, header says %d", ErrCorrupt, len(docs), numDocs)
	}
	return docs, nil
}
