/*
Copyright The Provisioner Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaults(t *testing.T) {
	specs, err := Build("/media/developer", "24", MustParseURLTemplate(DefaultURLTemplate), DefaultDefinitions())
	require.NoError(t, err)
	require.Len(t, specs, 2)

	assert.Equal(t, Spec{
		Name:          "jail_app.conf",
		FileType:      "conf",
		URL:           "https://developer.lge.com/common/file/DownloadFile.dev?sdkVersion=24&fileType=conf",
		Path:          "/media/developer/jail_app.conf",
		SignaturePath: "/media/developer/jail_app.conf.sig",
	}, specs[0])
	assert.Equal(t, Spec{
		Name:     "jail_app.conf.sig",
		FileType: "sig",
		URL:      "https://developer.lge.com/common/file/DownloadFile.dev?sdkVersion=24&fileType=sig",
		Path:     "/media/developer/jail_app.conf.sig",
	}, specs[1])
}

func TestBuildEscapesIdentifier(t *testing.T) {
	specs, err := Build("/media/developer", "6.3.1 & more", MustParseURLTemplate(DefaultURLTemplate), DefaultDefinitions())
	require.NoError(t, err)
	assert.Equal(t, "https://developer.lge.com/common/file/DownloadFile.dev?sdkVersion=6.3.1+%26+more&fileType=conf", specs[0].URL)
}

func TestBuildClampsPaths(t *testing.T) {
	dir := t.TempDir()
	specs, err := Build(dir, "24", MustParseURLTemplate(DefaultURLTemplate), []Definition{
		{Name: "../../etc/jail_app.conf", FileType: "conf"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "etc", "jail_app.conf"), specs[0].Path)
}

func TestBuildErrors(t *testing.T) {
	tmpl := MustParseURLTemplate(DefaultURLTemplate)
	_, err := Build("/tmp", "24", tmpl, nil)
	assert.Error(t, err)

	_, err = Build("/tmp", "24", tmpl, []Definition{{Name: "a"}})
	assert.Error(t, err)

	_, err = Build("/tmp", "24", MustParseURLTemplate("{{ .Identifier }}/x"), DefaultDefinitions())
	assert.ErrorContains(t, err, "not absolute")
}

func TestParseURLTemplate(t *testing.T) {
	_, err := ParseURLTemplate("")
	assert.Error(t, err)

	_, err = ParseURLTemplate("https://example.com/{{ .Identifier")
	assert.Error(t, err)

	tmpl, err := ParseURLTemplate("https://mirror.example.com/{{ .Identifier }}/{{ .FileType }}")
	require.NoError(t, err)
	u, err := tmpl.Expand("24", "sig")
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.com/24/sig", u)
	assert.Equal(t, "https://mirror.example.com/{{ .Identifier }}/{{ .FileType }}", tmpl.String())

	tmpl, err = ParseURLTemplate("https://example.com/{{ .Version }}")
	require.NoError(t, err)
	_, err = tmpl.Expand("24", "conf")
	assert.Error(t, err)
}

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "full")
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(full, []byte("data"), 0644))
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	st := CheckFile(full)
	assert.True(t, st.Valid())
	assert.Equal(t, int64(4), st.Size)

	assert.ErrorIs(t, CheckFile(empty).Err, ErrEmpty)
	assert.ErrorIs(t, CheckFile(dir).Err, ErrNotRegular)
	assert.True(t, os.IsNotExist(CheckFile(filepath.Join(dir, "missing")).Err))
}

func TestAllValid(t *testing.T) {
	dir := t.TempDir()
	specs, err := Build(dir, "24", MustParseURLTemplate(DefaultURLTemplate), DefaultDefinitions())
	require.NoError(t, err)

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	assert.False(t, AllValid(specs), "nothing on disk")

	write("jail_app.conf", "conf")
	assert.False(t, AllValid(specs), "signature missing")
	reports := CheckAll(specs)
	require.Len(t, reports, 2)
	assert.True(t, reports[0].File.Valid())
	require.NotNil(t, reports[0].Signature)
	assert.False(t, reports[0].Signature.Valid())
	assert.False(t, reports[0].Valid())
	assert.Nil(t, reports[1].Signature)

	write("jail_app.conf.sig", "")
	assert.False(t, AllValid(specs), "signature empty")

	write("jail_app.conf.sig", "sig")
	assert.True(t, AllValid(specs))

	assert.False(t, AllValid(nil))
}
