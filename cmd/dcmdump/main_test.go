// Copyright 2018 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Anti1447/go-dicom-parser/dicom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const pixelDataSize = 8192

// testFile returns an explicit VR little endian DICOM file holding a sequence with one item and
// 8 KiB of native pixel data
func testFile(t *testing.T, undefinedLengths bool) []byte {
	t.Helper()
	enc := dicom.ExplicitVRLittleEndian

	b := dicom.AppendPreamble(nil)
	b, err := dicom.AppendMetaGroup(b, "1.2.840.10008.5.1.4.1.1.7", "1.2.3.4.5", dicom.ExplicitVRLittleEndianUID)
	require.NoError(t, err)

	b, err = dicom.AppendAttribute(b, enc, dicom.SOPClassUIDTag, dicom.UIVR, []byte("1.2.840.10008.5.1.4.1.1.7"))
	require.NoError(t, err)

	item, err := dicom.AppendAttribute(nil, enc, dicom.ReferencedSOPInstanceUIDTag, dicom.UIVR, []byte("1.2.3.4"))
	require.NoError(t, err)
	if undefinedLengths {
		b, err = dicom.AppendHeader(b, enc, dicom.ReferencedStudySequenceTag, dicom.SQVR, dicom.UndefinedLength)
		require.NoError(t, err)
		b, err = dicom.AppendHeader(b, enc, dicom.ItemTag, nil, dicom.UndefinedLength)
		require.NoError(t, err)
		b = append(b, item...)
		b = dicom.AppendDelimiter(b, enc, dicom.ItemDelimitationItemTag)
		b = dicom.AppendDelimiter(b, enc, dicom.SequenceDelimitationItemTag)
	} else {
		b, err = dicom.AppendHeader(b, enc, dicom.ReferencedStudySequenceTag, dicom.SQVR, uint32(8+len(item)))
		require.NoError(t, err)
		b, err = dicom.AppendHeader(b, enc, dicom.ItemTag, nil, uint32(len(item)))
		require.NoError(t, err)
		b = append(b, item...)
	}

	b, err = dicom.AppendAttribute(b, enc, dicom.PatientNameTag, dicom.PNVR, []byte("Doe^John"))
	require.NoError(t, err)
	b, err = dicom.AppendAttribute(b, enc, dicom.PixelDataTag, dicom.OWVR, bytes.Repeat([]byte{0x12, 0x34}, pixelDataSize/2))
	require.NoError(t, err)
	return b
}

func newTestFs(t *testing.T, files map[string][]byte) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, name, content, 0o644))
	}
	return fsys
}

// execute runs dcmdump with args and returns what it printed and logged
func execute(t *testing.T, fsys afero.Fs, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	cmd := newRootCmd(fsys, &logs)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func TestDump(t *testing.T) {
	for _, tc := range []struct {
		name             string
		undefinedLengths bool
		want             []string
	}{
		{
			name:             "undefined lengths",
			undefinedLengths: true,
			want: []string{
				"(0008,1110) SQ ReferencedStudySequence #undefined @",
				">(FFFE,E000) -- Item #undefined @",
				">>(0008,1155) UI ReferencedSOPInstanceUID #8 @",
				">(FFFE,E00D) -- ItemDelimitationItem #0 @",
				"(FFFE,E0DD) -- SequenceDelimitationItem #0 @",
			},
		},
		{
			name: "explicit lengths",
			want: []string{
				"(0008,1110) SQ ReferencedStudySequence #24 @",
				">(FFFE,E000) -- Item #16 @",
				">>(0008,1155) UI ReferencedSOPInstanceUID #8 @",
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, tc.undefinedLengths)})

			out, _, err := execute(t, fsys, "dump", "/a.dcm")
			require.NoError(t, err)

			require.True(t, strings.HasPrefix(out, "# /a.dcm\n"), out)
			require.Contains(t, out, "(0002,0010) UI TransferSyntaxUID #20 @")
			require.Contains(t, out, "(0010,0010) PN PatientName #8 @")
			require.Contains(t, out, "[Doe^John]")
			require.Contains(t, out, "[1.2.3.4]")
			require.Contains(t, out, "(7FE0,0010) OW PixelData #8192 @")
			require.Contains(t, out, "(8.0 KiB skipped)")
			for _, line := range tc.want {
				require.Contains(t, out, line)
			}
		})
	}
}

func TestDump_bulkDataThreshold(t *testing.T) {
	fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, false)})

	out, _, err := execute(t, fsys, "dump", "--bulk-data-threshold=16KB", "/a.dcm")
	require.NoError(t, err)
	require.NotContains(t, out, "skipped")
	require.Contains(t, out, "<8.0 KiB>")
}

func TestDump_stopAt(t *testing.T) {
	fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, true)})

	out, logs, err := execute(t, fsys, "dump", "--stop-at", "(0010,0010)", "/a.dcm")
	require.NoError(t, err)
	require.Contains(t, out, ">>(0008,1155)")
	require.NotContains(t, out, "(0010,0010)")
	require.NotContains(t, out, "(7FE0,0010)")
	require.Contains(t, logs, "cancelled=true")
}

func TestDump_rawDataSet(t *testing.T) {
	enc := dicom.ImplicitVRLittleEndian
	b, err := dicom.AppendAttribute(nil, enc, dicom.PatientNameTag, nil, []byte("Doe^John"))
	require.NoError(t, err)
	b, err = dicom.AppendAttribute(b, enc, dicom.RowsTag, nil, []byte{0x02, 0x00})
	require.NoError(t, err)
	fsys := newTestFs(t, map[string][]byte{"/raw": b})

	out, _, err := execute(t, fsys, "dump", "--transfer-syntax", dicom.ImplicitVRLittleEndianUID, "/raw")
	require.NoError(t, err)
	require.Equal(t, "# /raw\n"+
		"(0010,0010) PN PatientName #8 @8 [Doe^John]\n"+
		"(0028,0010) US Rows #2 @24 [2]\n", out)
}

func TestDigest(t *testing.T) {
	fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, true)})

	out, _, err := execute(t, fsys, "digest", "--chunk-size=100B", "/a.dcm")
	require.NoError(t, err)
	require.Contains(t, out, fmt.Sprintf("(0010,0010) %016x\n", xxhash.Sum64([]byte("Doe^John"))))
	require.Contains(t, out, fmt.Sprintf("(0008,1155) %016x\n", xxhash.Sum64([]byte("1.2.3.4\x00"))))
	pixels := bytes.Repeat([]byte{0x12, 0x34}, pixelDataSize/2)
	require.Contains(t, out, fmt.Sprintf("(7FE0,0010) %016x\n", xxhash.Sum64(pixels)))
	require.NotContains(t, out, "(0008,1110)")
}

func TestRun_order(t *testing.T) {
	files := map[string][]byte{}
	var args []string
	for i := 0; i < 6; i++ {
		name := fmt.Sprintf("/%d.dcm", i)
		files[name] = testFile(t, i%2 == 0)
		args = append(args, name)
	}
	fsys := newTestFs(t, files)

	out, logs, err := execute(t, fsys, append([]string{"digest", "--concurrency=3"}, args...)...)
	require.NoError(t, err)
	last := -1
	for _, name := range args {
		i := strings.Index(out, "# "+name+"\n")
		require.Greater(t, i, last, "report of %s out of order", name)
		last = i
		require.Contains(t, logs, "file="+name)
	}
}

func TestRun_errors(t *testing.T) {
	truncated := testFile(t, false)
	truncated = truncated[:len(truncated)-10]
	fsys := newTestFs(t, map[string][]byte{
		"/a.dcm":         testFile(t, false),
		"/truncated.dcm": truncated,
	})

	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{name: "missing file", args: []string{"dump", "/missing.dcm"}, want: "/missing.dcm"},
		{name: "truncated", args: []string{"dump", "/truncated.dcm"}, want: "/truncated.dcm"},
		{name: "no files", args: []string{"digest"}, want: "requires at least 1 arg"},
		{name: "invalid config", args: []string{"dump", "--concurrency=0", "/a.dcm"}, want: "concurrency"},
		{name: "missing config file", args: []string{"dump", "--config.file=/missing.yaml", "/a.dcm"}, want: "reading config file"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, fsys, tc.args...)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRun_truncatedIsLogged(t *testing.T) {
	b := testFile(t, false)
	fsys := newTestFs(t, map[string][]byte{"/t.dcm": b[:len(b)-10]})

	_, logs, err := execute(t, fsys, "digest", "/t.dcm")
	require.ErrorIs(t, err, dicom.ErrTruncated)
	require.Contains(t, logs, "level=error")
	require.Contains(t, logs, "level=warn")
}

func TestMetrics(t *testing.T) {
	fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, true)})

	out, _, err := execute(t, fsys, "dump", "--metrics", "/a.dcm")
	require.NoError(t, err)
	require.Contains(t, out, "dicom_parser_bytes_consumed_total ")
	require.Contains(t, out, `dicom_parser_attributes_total{control="skip"} `)
	require.Contains(t, out, `dicom_parser_parse_calls_total{state="completed"} `)

	out, _, err = execute(t, fsys, "dump", "/a.dcm")
	require.NoError(t, err)
	require.NotContains(t, out, "dicom_parser")
}

func TestLogLevel(t *testing.T) {
	fsys := newTestFs(t, map[string][]byte{"/a.dcm": testFile(t, true)})

	_, logs, err := execute(t, fsys, "dump", "--log.level=error", "/a.dcm")
	require.NoError(t, err)
	require.Empty(t, logs)

	_, logs, err = execute(t, fsys, "dump", "/a.dcm")
	require.NoError(t, err)
	require.Contains(t, logs, "level=info")
	require.Contains(t, logs, "msg=parsed")
}
