package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"ocw-contentful/internal/config"
	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/mappers"
	"ocw-contentful/internal/providers"
	"ocw-contentful/internal/providers/ocw"
)

// parsecourse prints one parsed course record as JSON, for checking the
// source data before a migration. With -model it prints the target content
// types and their fields instead.
func main() {
	var (
		file       = flag.String("file", "", "local department listing json")
		department = flag.String("department", "", "department slug to fetch from OCW")
		course     = flag.String("course", "", "course uid (or course url/slug with -s3)")
		fromS3     = flag.Bool("s3", false, "read the course master json from the OCW course data bucket")
		model      = flag.String("model", "", `print the target fields of a kind or content type ("all" = every kind)`)
	)
	flag.Parse()

	if *model != "" {
		if err := printModel(os.Stdout, *model); err != nil {
			log.Fatal(err)
		}
		return
	}

	if *course == "" {
		log.Fatal("-course is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	src, err := source(ctx, config.Load(), *file, *department, *fromS3)
	if err != nil {
		log.Fatal(err)
	}
	rec, err := src.FetchCourse(ctx, *course)
	if err != nil {
		log.Fatal(err)
	}
	if err := printCourse(os.Stdout, rec); err != nil {
		log.Fatal(err)
	}
}

func source(ctx context.Context, cfg config.Config, file, department string, fromS3 bool) (providers.CourseSource, error) {
	switch {
	case fromS3:
		s3, err := ocw.NewS3Source(ocw.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return s3, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		dep, err := ocw.ParseDepartment(data)
		if err != nil {
			return nil, err
		}
		return dep, nil
	case department != "":
		src := ocw.NewHTTPSource(cfg.OCWBaseURL)
		dep, err := src.FetchDepartment(ctx, src.DepartmentURL(department))
		if err != nil {
			return nil, err
		}
		return dep, nil
	}
	return nil, errNoSource
}

var errNoSource = errors.New("pass -file, -department or -s3")

type courseView struct {
	UID            string                       `json:"uid"`
	Attrs          domain.Attributes            `json:"attrs"`
	Faculty        []string                     `json:"faculty,omitempty"`
	Topics         []domain.TopicTriple         `json:"topics,omitempty"`
	MediaResources []domain.MediaResource       `json:"media_resources,omitempty"`
	PDFs           []domain.PDFGroup            `json:"pdfs,omitempty"`
	Pages          []domain.PageRecord          `json:"pages,omitempty"`
	Files          []domain.FileRecord          `json:"files,omitempty"`
	EmbeddedMedia  []domain.EmbeddedMediaRecord `json:"embedded_media,omitempty"`
}

func printCourse(w io.Writer, rec *domain.CourseRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(courseView{
		UID:            rec.UID,
		Attrs:          rec.Attrs,
		Faculty:        rec.Faculty,
		Topics:         rec.Topics,
		MediaResources: rec.MediaResources,
		PDFs:           rec.PDFs,
		Pages:          rec.Pages,
		Files:          rec.Files,
		EmbeddedMedia:  rec.EmbeddedMedia,
	})
}

type modelView struct {
	Kind        string   `json:"kind"`
	ContentType string   `json:"content_type"`
	Fields      []string `json:"fields"`
}

// printModel writes the fields of one kind, named by kind or content type
// id, or of every kind for "all".
func printModel(w io.Writer, name string) error {
	kinds := domain.Kinds()
	if name != "all" {
		k, err := domain.ParseKind(name)
		if err != nil {
			return err
		}
		kinds = []domain.EntityKind{k}
	}

	out := make([]modelView, 0, len(kinds))
	for _, k := range kinds {
		names, err := mappers.Fields(k)
		if err != nil {
			return err
		}
		out = append(out, modelView{Kind: k.String(), ContentType: k.ContentType(), Fields: names})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
