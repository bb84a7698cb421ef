package nzb

import (
	"strings"
	"testing"

	"github.com/datallboy/gonzb-assembler/internal/domain"
	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `<?xml version="1.0" encoding="iso-8859-1" ?>
<nzb xmlns="http://www.newzbin.com/DTD/2003/nzb">
 <head>
  <meta type="password">fromhead</meta>
 </head>
 <file poster="poster@example.com" date="1700000000" subject="[1/2] - &quot;show.part01.rar&quot; yEnc (1/2)">
  <groups><group>alt.binaries.test</group></groups>
  <segments>
   <segment bytes="700" number="2">part2@example.com</segment>
   <segment bytes="1000" number="1">&lt;part1@example.com&gt;</segment>
  </segments>
 </file>
 <file poster="poster@example.com" date="1700000000" subject="[2/2] show.par2 yEnc (1/1)">
  <groups><group>alt.binaries.test</group></groups>
  <segments>
   <segment bytes="300" number="1">par@example.com</segment>
  </segments>
 </file>
 <file poster="poster@example.com" date="1700000000" subject="empty">
  <segments></segments>
 </file>
</nzb>`

func TestParse(t *testing.T) {
	model, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Len(t, model.Files, 3)
	assert.Equal(t, []string{"alt.binaries.test"}, model.Files[0].Groups)
	assert.Equal(t, int64(1700), model.Files[0].TotalSize())
	assert.Equal(t, []string{"fromhead"}, model.MetaValues("password"))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not xml"))
	assert.Error(t, err)
}

func TestBuildJob(t *testing.T) {
	model, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	job, err := BuildJob(model, "/incoming/My.Show{{s3cret}}.nzb")
	require.NoError(t, err)

	_, err = ksuid.Parse(job.ID)
	assert.NoError(t, err)
	assert.Equal(t, "My.Show", job.Name)
	assert.Equal(t, "My.Show{{s3cret}}.nzb", job.Filename)
	assert.Equal(t, []string{"fromhead", "s3cret"}, job.Passwords)
	assert.Equal(t, uint64(2000), job.TotalBytes)

	files := job.Files()
	require.Len(t, files, 2, "files without segments are skipped")

	rar := files[0]
	assert.Equal(t, "show.part01.rar", rar.Filename)
	assert.Equal(t, []int{1, 2}, rar.Decodetable.Numbers())
	assert.Equal(t, domain.ArticleRef("part1@example.com"), rar.Decodetable[1])
	assert.Equal(t, domain.ArticleRef("part2@example.com"), rar.Decodetable[2])

	par := files[1]
	assert.Equal(t, "show.par2", par.Filename)
	assert.True(t, par.IsPar2())
	assert.Same(t, par, job.PartTable["show"])
}

func TestBuildJobEmpty(t *testing.T) {
	_, err := BuildJob(&Model{}, "empty.nzb")
	assert.ErrorIs(t, err, ErrEmptyNZB)
}

func TestSplitPassword(t *testing.T) {
	tests := []struct{ in, name, pw string }{
		{"Show", "Show", ""},
		{"Show{{pw}}", "Show", "pw"},
		{"Show {{a{b}}", "Show", "a{b"},
		{"Show{{}}", "Show{{}}", ""},
		{"Show}}", "Show}}", ""},
	}
	for _, tt := range tests {
		name, pw := splitPassword(tt.in)
		assert.Equal(t, tt.name, name, tt.in)
		assert.Equal(t, tt.pw, pw, tt.in)
	}
}
