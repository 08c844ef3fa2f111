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

package cmd

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/webosbrew/provisioner/pkg/downloader"
)

// progressBars draws one byte-progress bar per URL.
type progressBars struct {
	mu   sync.Mutex
	out  io.Writer
	bars map[string]*progressbar.ProgressBar
}

func newProgressBars(out io.Writer) *progressBars {
	return &progressBars{out: out, bars: map[string]*progressbar.ProgressBar{}}
}

// progressFunc returns a ProgressFunc drawing to out, or nil when out is not
// a terminal.
func progressFunc(out io.Writer) (downloader.ProgressFunc, func()) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, func() {}
	}
	p := newProgressBars(out)
	return p.update, p.finish
}

func (p *progressBars) update(href string, progress, total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	bar, ok := p.bars[href]
	if !ok {
		max := total
		if max <= 0 {
			max = -1
		}
		bar = progressbar.NewOptions64(
			max,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowBytes(true),
			progressbar.OptionSetDescription(describe(href)),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(p.out)
			}),
		)
		p.bars[href] = bar
	}
	if total > 0 && bar.GetMax64() != total {
		bar.ChangeMax64(total)
	}
	_ = bar.Set64(progress)
}

func (p *progressBars) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, bar := range p.bars {
		if !bar.IsFinished() {
			_ = bar.Finish()
		}
	}
}

// describe names a download by its fileType query parameter, falling back to
// the last path element.
func describe(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ft := u.Query().Get("fileType"); ft != "" {
		return ft
	}
	return path.Base(u.Path)
}
