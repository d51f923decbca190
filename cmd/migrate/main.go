package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ocw-contentful/internal/concurrency"
	"ocw-contentful/internal/config"
	"ocw-contentful/internal/export"
	"ocw-contentful/internal/providers"
	"ocw-contentful/internal/providers/contentful"
	"ocw-contentful/internal/providers/ocw"
	"ocw-contentful/internal/resolve"
	"ocw-contentful/internal/sftpclient"
	"ocw-contentful/internal/store"
	"ocw-contentful/internal/topology"
)

// job is one course to migrate: a reference understood by its source.
type job struct {
	src providers.CourseSource
	ref string
}

type options struct {
	departments string
	course      string
	fromS3      bool
	maxCourses  int
	workers     int
}

func main() {
	var (
		departments = flag.String("department", "", `comma separated department slugs ("all" = every department of the directory)`)
		course      = flag.String("course", "", "only this course: a uid of -department, or a course url/slug with -s3")
		fromS3      = flag.Bool("s3", false, "read -course from the OCW course data bucket")
		maxCourses  = flag.Int("max-courses", -1, "max courses to migrate (0 = all, default MIGRATE_MAX_COURSES)")
		dryRun      = flag.Bool("dry-run", false, "migrate into an in-memory store instead of contentful")
		publish     = flag.Bool("publish", false, "publish each courseware after its final save")
		reportPath  = flag.String("report", "", "write the migration report csv to this path")
		uploadSFTP  = flag.Bool("sftp", false, "upload the migration report via SFTP")
	)
	flag.Parse()

	rootCtx, rootCancel := context.WithTimeout(context.Background(), 8*time.Hour)
	defer rootCancel()

	cfg := config.Load()

	opts := options{
		departments: *departments,
		course:      *course,
		fromS3:      *fromS3,
		maxCourses:  cfg.MaxCourses,
		workers:     cfg.PrefetchWorkers,
	}
	if *maxCourses >= 0 {
		opts.maxCourses = *maxCourses
	}
	if opts.departments == "" && !opts.fromS3 {
		log.Fatal("nothing to migrate: pass -department or -s3 -course")
	}

	var st store.Store
	if *dryRun {
		st = store.NewMemory()
		log.Printf("dry run: writing to an in-memory store")
	} else {
		if cfg.ContentfulSpaceID == "" || cfg.ContentfulToken == "" {
			log.Fatal("missing env CONTENTFUL_SPACE_ID / CONTENTFUL_MANAGEMENT_TOKEN")
		}
		cf := contentful.New(cfg.ContentfulBaseURL, cfg.ContentfulSpaceID, cfg.ContentfulEnvironment, cfg.ContentfulToken)
		if cfg.ContentfulRateLimit > 0 {
			cf.Limiter = rate.NewLimiter(rate.Limit(cfg.ContentfulRateLimit), cfg.ContentfulRateLimit)
		}
		st = cf
	}

	rep := export.NewReport()
	resolver := resolve.New(st, resolve.WithRecorder(rep), resolve.WithCacheSize(cfg.CacheSize))

	src := ocw.NewHTTPSource(cfg.OCWBaseURL)
	dir, err := src.FetchDirectory(rootCtx)
	if err != nil {
		log.Printf("WARN: departments directory unavailable, using course titles: %v", err)
	}

	b := topology.New(st, resolver, nil)
	if dir != nil {
		b.Departments = dir
	}
	b.Publish = *publish || cfg.Publish

	var jobs []job
	if opts.fromS3 {
		s3, err := ocw.NewS3Source(ocw.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			log.Fatal(err)
		}
		if opts.course == "" {
			log.Fatal("-s3 needs -course")
		}
		jobs = []job{{src: s3, ref: opts.course}}
	} else {
		jobs = collect(rootCtx, src, dir, opts)
	}

	migrated, failed := migrate(rootCtx, b, rep, jobs)
	log.Printf("migrated %d courses, %d failed (%s)", migrated, failed, rep.Summary())

	if *uploadSFTP && *reportPath == "" {
		*reportPath = fmt.Sprintf("ocw-migration-%s.csv", rep.RunID)
	}
	if *reportPath == "" {
		return
	}
	if err := rep.WriteCSVFile(*reportPath); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote report to %s", *reportPath)

	if *uploadSFTP {
		remoteName := filepath.Base(*reportPath)

		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			KnownHosts:            cfg.SFTPKnownHosts,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}

		upCtx, upCancel := context.WithTimeout(rootCtx, 5*time.Minute)
		defer upCancel()

		if err := sftpclient.UploadFile(upCtx, upCfg, *reportPath, remoteName); err != nil {
			log.Fatal(err)
		}
		log.Printf("uploaded to sftp://%s:%d%s/%s", upCfg.Host, upCfg.Port, upCfg.RemoteDir, remoteName)
	}
}

// departmentSlugs expands the -department flag.
func departmentSlugs(flagValue string, dir *ocw.Directory) []string {
	if strings.TrimSpace(flagValue) == "all" {
		if dir == nil {
			return nil
		}
		return dir.Slugs()
	}
	var out []string
	seen := map[string]bool{}
	for _, s := range strings.Split(flagValue, ",") {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// collect fetches the department listings in parallel and lists their
// courses in listing order.
func collect(ctx context.Context, src *ocw.HTTPSource, dir *ocw.Directory, opts options) []job {
	slugs := departmentSlugs(opts.departments, dir)
	deps, errs := concurrency.ProcessParallel(ctx, slugs, concurrency.ParallelOptions{MaxWorkers: opts.workers},
		func(ctx context.Context, _ int, slug string) (*ocw.Department, error) {
			return src.FetchDepartment(ctx, src.DepartmentURL(slug))
		})
	for _, err := range errs {
		log.Printf("WARN: %v", err)
	}

	var jobs []job
	for _, d := range deps {
		if d == nil {
			continue
		}
		for _, uid := range d.UIDs {
			if opts.course != "" && uid != opts.course {
				continue
			}
			jobs = append(jobs, job{src: d, ref: uid})
		}
	}
	return limit(jobs, opts.maxCourses)
}

func limit(jobs []job, max int) []job {
	if max > 0 && len(jobs) > max {
		return jobs[:max]
	}
	return jobs
}

// migrate assembles the courses one at a time; a failed course does not
// stop the run.
func migrate(ctx context.Context, b *topology.Builder, rep *export.Report, jobs []job) (migrated, failed int) {
	for _, j := range jobs {
		if ctx.Err() != nil {
			log.Printf("WARN: stopping: %v", ctx.Err())
			break
		}
		rec, err := j.src.FetchCourse(ctx, j.ref)
		if err != nil {
			log.Printf("WARN: %s: %v", j.src.Name(), err)
			failed++
			continue
		}
		rep.Course(rec.UID)
		if _, err := b.Assemble(ctx, rec); err != nil {
			log.Printf("WARN: %v", err)
			failed++
			continue
		}
		migrated++
	}
	return migrated, failed
}
