package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `swhid,file_id,length,local_path,filename,filepath
swh:1:cnt:aaa,aaa,100,ab,aaa.txt,ab/aaa.txt
swh:1:cnt:bbb,bbb,200,cd,bbb.txt,cd/bbb.txt
swh:1:cnt:ccc,ccc,not-a-number,ef,ccc.txt,ef/ccc.txt
NaN,ddd,400,gh,ddd.txt,gh/ddd.txt
swh:1:cnt:eee,,500,ij,eee.txt,ij/eee.txt
`

func TestLoadReaderSkipsMalformedAndNaNRows(t *testing.T) {
	ds, err := LoadReader(strings.NewReader(sampleCSV), nil)
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "aaa", ds[0].FileID)
	assert.Equal(t, uint64(100), ds[0].Length)
	assert.Equal(t, "bbb", ds[1].FileID)
}

func TestLoadReaderRejectsMissingColumn(t *testing.T) {
	const badHeader = "swhid,file_id,length,local_path,filename\nx,y,1,z,w\n"
	_, err := LoadReader(strings.NewReader(badHeader), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadReaderHandlesEmptyBody(t *testing.T) {
	const header = "swhid,file_id,length,local_path,filename,filepath\n"
	ds, err := LoadReader(strings.NewReader(header), nil)
	require.NoError(t, err)
	assert.Len(t, ds, 0)
}
