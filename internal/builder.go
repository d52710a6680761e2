package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/color"
	"go.uber.org/zap"
)

const (
	projectFile = "project.hopscotch"
	playerFile  = "player.js"
	pixiFile    = "pixi.js"
	indexFile   = "index.html"
	packageFile = "package.json"
	imagesDir   = "custom_images"
	soundsDir   = "sounds"
)

type Builder struct {
	cfg      *Config
	fetcher  Fetcher
	template fs.FS
	logger   *zap.Logger
}

// Result summarises a generated bundle.
type Result struct {
	Title          string
	Author         string
	RuntimeVersion string
	Probes         int
	Images         int
	Sounds         int
	Skipped        []string
}

func NewBuilder(cfg *Config, fetcher Fetcher, logger *zap.Logger) (*Builder, error) {
	if cfg == nil {
		return nil, fmt.Errorf("builder requires a config")
	}
	if fetcher == nil {
		fetcher = NewHTTPFetcher(60 * time.Second)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{
		cfg:      cfg,
		fetcher:  fetcher,
		template: DefaultTemplate(),
		logger:   logger,
	}, nil
}

// UseTemplate replaces the embedded template with tmpl.
func (b *Builder) UseTemplate(tmpl fs.FS) {
	b.template = tmpl
}

// Generate builds the bundle for the project named by input into dest. On
// failure anything written to dest is removed again.
func (b *Builder) Generate(ctx context.Context, input, dest string) (res *Result, err error) {
	if _, err := os.Stat(dest); err == nil {
		return nil, &DestinationExistsError{Path: dest}
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	startTime := time.Now()

	color.Printf("Downloading project\n")
	project, err := b.fetchProject(ctx, input)
	if err != nil {
		return nil, err
	}
	res = &Result{
		Title:  project.Title(),
		Author: project.Author(),
	}
	color.Printf("Found <green>%s</> by <green>%s</> using player <green>%s</>\n",
		color.ClearTag(res.Title), color.ClearTag(res.Author), color.ClearTag(project.PlayerVersion()))

	color.Printf("Downloading player information\n")
	build, probes, err := b.resolveRuntime(ctx, project.PlayerVersion())
	if err != nil {
		return nil, err
	}
	res.RuntimeVersion = build.Version
	res.Probes = probes

	color.Printf("Downloading webplayer <grey>%s</>\n", build.Path)
	player, err := b.fetcher.Fetch(ctx, b.cfg.PlayerURL(build))
	if err != nil {
		return nil, err
	}
	color.Printf("Downloading pixi <grey>%s</>\n", build.PixiVersion)
	pixi, err := b.fetcher.Fetch(ctx, b.cfg.PixiURL(build))
	if err != nil {
		return nil, err
	}

	color.Printf("Downloading character SVGs\n")
	svg, err := FindCharacterSVG(ctx, b.fetcher, b.cfg.SampleProjects, b.logger)
	if err != nil {
		return nil, err
	}

	color.Printf("Copying template\n")
	created := missingRoot(dest)
	if err := copyTemplate(b.template, dest, b.cfg.TemplateIgnore); err != nil {
		var destErr *DestinationExistsError
		if !errors.As(err, &destErr) {
			_ = os.RemoveAll(created)
		}
		return nil, fmt.Errorf("copy template: %w", err)
	}
	defer func() {
		if err != nil {
			b.logger.Warn("removing partial bundle", zap.String("dest", dest), zap.String("removed", created), zap.Error(err))
			if rmErr := os.RemoveAll(created); rmErr != nil {
				b.logger.Error("remove partial bundle", zap.Error(rmErr))
			}
		}
	}()

	color.Printf("Adding project, player and pixi files\n")
	for name, data := range map[string][]byte{projectFile: project.Raw, playerFile: player, pixiFile: pixi} {
		if err := os.WriteFile(filepath.Join(dest, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := b.writePackage(dest, project, build); err != nil {
		return nil, err
	}

	color.Printf("Including svg string\n")
	indexPath := filepath.Join(dest, indexFile)
	page, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("template has no %s: %w", indexFile, err)
	}
	if err := os.WriteFile(indexPath, RenderIndex(page, project, svg), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", indexFile, err)
	}

	color.Printf("Copying custom images\n")
	images, skipped := b.imageJobs(project, dest)
	res.Skipped = append(res.Skipped, skipped...)
	if err := fetchAll(ctx, b.fetcher, images, b.cfg.Concurrency); err != nil {
		return nil, err
	}
	res.Images = len(images)

	color.Printf("Copying sounds\n")
	sounds, skipped := b.soundJobs(project, dest)
	res.Skipped = append(res.Skipped, skipped...)
	if err := fetchAll(ctx, b.fetcher, sounds, b.cfg.Concurrency); err != nil {
		return nil, err
	}
	res.Sounds = len(sounds)

	b.logger.Info("bundle generated",
		zap.String("dest", dest),
		zap.String("runtime", build.Version),
		zap.Int("images", res.Images),
		zap.Int("sounds", res.Sounds),
		zap.Duration("took", time.Since(startTime)))
	color.Printf("<green>Done!</> finished in %s\n", time.Since(startTime))
	return res, nil
}

func (b *Builder) fetchProject(ctx context.Context, input string) (*Project, error) {
	target, err := ResolveIdentifier(input, b.cfg)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("fetching project", zap.String("input", input), zap.String("url", target))
	data, err := b.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	project, err := ParseProject(data)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	return project, nil
}

func (b *Builder) resolveRuntime(ctx context.Context, version string) (RuntimeBuild, int, error) {
	data, err := b.fetcher.Fetch(ctx, b.cfg.IndexURL)
	if err != nil {
		return RuntimeBuild{}, 0, err
	}
	reg, err := ParseRegistry(data)
	if err != nil {
		return RuntimeBuild{}, 0, &FetchError{URL: b.cfg.IndexURL, Err: err}
	}
	build, probes, err := ResolveRuntime(version, reg, b.cfg.MaxProbes)
	if err != nil {
		return RuntimeBuild{}, 0, err
	}
	b.logger.Info("resolved runtime",
		zap.String("requested", version),
		zap.String("version", build.Version),
		zap.Int("probes", probes))
	return build, probes, nil
}

func (b *Builder) writePackage(dest string, p *Project, build RuntimeBuild) error {
	pkgPath := filepath.Join(dest, packageFile)
	data, err := os.ReadFile(pkgPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if data, err = stampPackage(data, p, build); err != nil {
		return err
	}
	return os.WriteFile(pkgPath, data, 0o644)
}

func (b *Builder) imageJobs(p *Project, dest string) ([]fetchJob, []string) {
	var (
		jobs    []fetchJob
		skipped []string
		seen    = map[string]bool{}
	)
	for _, name := range p.RemoteAssets() {
		if err := CheckAssetName(name, false); err != nil {
			color.Warn.Printf("Skipping %s for having a sus filename\n", name)
			b.logger.Warn("skipping image", zap.Error(err))
			skipped = append(skipped, name)
			continue
		}
		target := filepath.Join(dest, imagesDir, name)
		if seen[target] {
			continue
		}
		seen[target] = true
		jobs = append(jobs, fetchJob{
			url:  b.cfg.ImageURL(name),
			dest: target,
		})
	}
	return jobs, skipped
}

func (b *Builder) soundJobs(p *Project, dest string) ([]fetchJob, []string) {
	var (
		jobs    []fetchJob
		skipped []string
		seen    = map[string]bool{}
	)
	for _, name := range CollectSounds(p).Sorted() {
		file := SoundFilename(name)
		if err := CheckAssetName(file, true); err != nil {
			color.Warn.Printf("Skipping sound %s for having a sus filename\n", name)
			b.logger.Warn("skipping sound", zap.Error(err))
			skipped = append(skipped, name)
			continue
		}
		// "boop" and "boop.mp3" name the same file.
		target := filepath.Join(dest, soundsDir, filepath.FromSlash(file))
		if seen[target] {
			continue
		}
		seen[target] = true
		jobs = append(jobs, fetchJob{
			url:  b.cfg.SoundURL(file),
			dest: target,
		})
	}
	return jobs, skipped
}

// missingRoot returns the outermost directory on the way to dir, dir
// included, that does not exist yet.
func missingRoot(dir string) string {
	root := dir
	for p := filepath.Dir(dir); p != root; p = filepath.Dir(p) {
		if _, err := os.Stat(p); err == nil {
			break
		}
		root = p
	}
	return root
}

// CheckAssetName rejects names that could escape their asset folder. Sounds
// may sit one directory deep (instrument/note.wav); images may not.
func CheckAssetName(name string, allowDir bool) error {
	if name == "" || strings.ContainsAny(name, "\\\x00") {
		return &UnsafeFilenameError{Name: name}
	}
	parts := strings.Split(name, "/")
	if len(parts) > 2 || (len(parts) == 2 && !allowDir) {
		return &UnsafeFilenameError{Name: name}
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return &UnsafeFilenameError{Name: name}
		}
	}
	return nil
}
