package main

// Generates bounded-size thumbnails for image uploads so admin UIs don't pull
// full-resolution identity photos. Scans the upload root once, then optionally
// keeps watching it for new files. Best effort: non-image files are skipped.

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fsnotify/fsnotify"
)

var verbose bool

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
}

func isSupportedExt(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	return out
}

// thumbFor writes dir/thumbs/<name>, skipping files that already have a
// fresh thumbnail or that imaging cannot decode.
func thumbFor(dir, name string, maxDim int) {
	dst := filepath.Join(dir, "thumbs", name)
	if _, err := os.Stat(dst); err == nil {
		if verbose {
			log.Printf("skip %s: thumbnail exists", name)
		}
		return
	}
	img, err := imaging.Open(filepath.Join(dir, name))
	if err != nil {
		if verbose {
			log.Printf("skip %s: %v", name, err)
		}
		return
	}
	img = imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	if err := imaging.Save(img, dst); err != nil {
		log.Printf("save thumbnail %s: %v", name, err)
		return
	}
	if verbose {
		log.Printf("thumbnail %s", name)
	}
}

func runWorkers(dir string, maxDim, workers int, fileCh <-chan string) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				thumbFor(dir, name, maxDim)
			}
		}()
	}
	wg.Wait()
}

// watchDirectory follows new files with a debounce so half-written uploads
// settle before we open them.
func watchDirectory(dir string, fileCh chan<- string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("watching %s (debounced) ...", dir)

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				close(fileCh)
				return nil
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				name := filepath.Base(ev.Name)
				if isSupportedExt(name) {
					pending[name] = time.Now()
				}
			}
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > 300*time.Millisecond { // stable
					fileCh <- name
					delete(pending, name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				close(fileCh)
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}

func main() {
	dir := flag.String("dir", "uploads", "upload root to scan")
	maxDim := flag.Int("max", 320, "max thumbnail dimension in px")
	watch := flag.Bool("watch", false, "keep watching the directory for new files")
	workers := flag.Int("workers", 0, "worker pool size (default NumCPU)")
	flag.BoolVar(&verbose, "verbose", false, "per-file logging")
	flag.Parse()

	if *workers <= 0 {
		*workers = runtime.NumCPU()
	}
	if err := os.MkdirAll(filepath.Join(*dir, "thumbs"), 0o755); err != nil {
		log.Fatalf("create thumbs dir: %v", err)
	}

	files := listImageFiles(*dir)
	log.Printf("found %d candidate files in %s", len(files), *dir)

	fileCh := make(chan string, 256)
	done := make(chan struct{})
	go func() {
		runWorkers(*dir, *maxDim, *workers, fileCh)
		close(done)
	}()

	for _, f := range files {
		fileCh <- f
	}

	if *watch {
		if err := watchDirectory(*dir, fileCh); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	} else {
		close(fileCh)
	}
	<-done
}
