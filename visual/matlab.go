package visual

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/viant/sqlite-kdtree/kdtree"
)

// labelOffset shifts node labels right of their marker.
const labelOffset = 5

// WriteScript writes a MATLAB script plotting every point with an
// "<index>_<depth>" label and every splitting line, coloured from blue at the
// root towards red at the deepest level.
func WriteScript(w io.Writer, ix *kdtree.Index, region Region) error {
	segments, err := Segments(ix, region)
	if err != nil {
		return err
	}
	height := ix.Height()
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "figure; hold on; axis equal;\n")
	for _, s := range segments {
		fmt.Fprintf(bw, "scatter(%f,%f,'ro');\n", s.Point[0], s.Point[1])
		fmt.Fprintf(bw, "text(%f,%f,'%d_%d');\n", s.Point[0]+labelOffset, s.Point[1], s.Index, s.Depth)
		shade := 0.0
		if height > 0 {
			shade = float64(s.Depth) / float64(height)
		}
		fmt.Fprintf(bw, "line([%f,%f],[%f,%f],'Color',[%f, 0.3,%f]);\n",
			s.From[0], s.To[0], s.From[1], s.To[1], shade, 1-shade)
	}
	fmt.Fprint(bw, "hold off;\n")
	return bw.Flush()
}

// Script returns the WriteScript output as a string.
func Script(ix *kdtree.Index, region Region) (string, error) {
	var sb strings.Builder
	if err := WriteScript(&sb, ix, region); err != nil {
		return "", err
	}
	return sb.String(), nil
}
