package flat

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/reportrag/internal/core/domain"
)

const (
	formatVersion = 1

	// IndexExt is the vector file extension.
	IndexExt = ".index"
	// MetaExt is the metadata sidecar extension.
	MetaExt = ".meta"
)

var magic = [4]byte{'R', 'R', 'V', 'X'}

// metric identifies the similarity function stored in the header.
type metric uint32

const (
	metricL2           metric = 0
	metricInnerProduct metric = 1
)

// header is the fixed-size prefix of the vector file.
type header struct {
	Magic   [4]byte
	Version uint32
	Metric  uint32
	Dim     uint32
	Count   uint32
	MetaSum [sha256.Size]byte
}

// MetaPath returns the sidecar path for a vector file path.
// "x/abc.index" becomes "x/abc.meta"; "x/abc.doc.index" becomes "x/abc.doc.meta".
func MetaPath(indexPath string) string {
	return strings.TrimSuffix(indexPath, IndexExt) + MetaExt
}

// persist encodes vectors and metadata and swaps both files into place.
// Both artifacts are fully written to temporary files first; on any
// failure the temporaries are removed and existing artifacts are untouched.
func persist(path string, m metric, dim int, vectors [][]float32, meta any) error {
	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	var buf bytes.Buffer
	h := header{
		Magic:   magic,
		Version: formatVersion,
		Metric:  uint32(m),
		Dim:     uint32(dim),
		Count:   uint32(len(vectors)),
		MetaSum: sha256.Sum256(metaBytes),
	}
	if err := binary.Write(&buf, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for _, vec := range vectors {
		if err := binary.Write(&buf, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("encode vectors: %w", err)
		}
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	metaTmp, err := writeTemp(dir, filepath.Base(MetaPath(path)), metaBytes)
	if err != nil {
		return err
	}
	indexTmp, err := writeTemp(dir, filepath.Base(path), buf.Bytes())
	if err != nil {
		os.Remove(metaTmp) //nolint:errcheck
		return err
	}

	// Sidecar first: a reader pairing a new vector file with an old sidecar
	// would fail the checksum, never return wrong chunks.
	if err := os.Rename(metaTmp, MetaPath(path)); err != nil {
		os.Remove(metaTmp)  //nolint:errcheck
		os.Remove(indexTmp) //nolint:errcheck
		return fmt.Errorf("replace metadata: %w", err)
	}
	if err := os.Rename(indexTmp, path); err != nil {
		os.Remove(indexTmp) //nolint:errcheck
		return fmt.Errorf("replace index: %w", err)
	}
	return nil
}

// writeTemp writes data to a synced temporary file next to its target.
func writeTemp(dir, name string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()      //nolint:errcheck
		os.Remove(tmp) //nolint:errcheck
		return "", fmt.Errorf("sync %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp) //nolint:errcheck
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	return tmp, nil
}

// load reads a vector file and decodes its sidecar into meta.
// It returns the vectors and dimension after validating the pair.
func load(path string, want metric, meta any, metaLen func() int) ([][]float32, int, error) {
	metaBytes, err := os.ReadFile(MetaPath(path))
	if err != nil {
		return nil, 0, notFoundOr(err, "read metadata")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, notFoundOr(err, "open index")
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var h header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, 0, fmt.Errorf("%w: read header: %w", domain.ErrIndexCorrupt, err)
	}
	if h.Magic != magic || h.Version != formatVersion {
		return nil, 0, fmt.Errorf("%w: unknown format in %s", domain.ErrIndexCorrupt, path)
	}
	if metric(h.Metric) != want {
		return nil, 0, fmt.Errorf("%w: unexpected metric %d in %s", domain.ErrIndexCorrupt, h.Metric, path)
	}
	if h.MetaSum != sha256.Sum256(metaBytes) {
		return nil, 0, fmt.Errorf("%w: metadata does not belong to %s", domain.ErrIndexCorrupt, path)
	}

	if err := json.Unmarshal(metaBytes, meta); err != nil {
		return nil, 0, fmt.Errorf("%w: decode metadata: %w", domain.ErrIndexCorrupt, err)
	}
	if metaLen() != int(h.Count) {
		return nil, 0, fmt.Errorf("%w: %d vectors but %d metadata entries",
			domain.ErrIndexCorrupt, h.Count, metaLen())
	}

	dim := int(h.Dim)
	vectors := make([][]float32, h.Count)
	for i := range vectors {
		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, 0, fmt.Errorf("%w: read vector %d: %w", domain.ErrIndexCorrupt, i, err)
		}
		vectors[i] = vec
	}
	if _, err := r.ReadByte(); !errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("%w: trailing data in %s", domain.ErrIndexCorrupt, path)
	}

	return vectors, dim, nil
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", domain.ErrIndexNotFound, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// normalize scales v to unit length in place. Zero vectors are left as is.
func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

func checkDims(dim int, vectors [][]float32) error {
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has %d dimensions, index has %d: %w",
				i, len(vec), dim, domain.ErrDimensionMismatch)
		}
	}
	return nil
}
