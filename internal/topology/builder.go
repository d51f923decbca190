// Package topology assembles the entry graph of one course in dependency
// order: department, courseware, instructors, tags, pages with their files
// and embedded media, media and PDF resources, and finally the courseware
// references.
package topology

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"path"
	"strings"

	"ocw-contentful/internal/domain"
	"ocw-contentful/internal/fields"
	"ocw-contentful/internal/mappers"
	"ocw-contentful/internal/resolve"
	"ocw-contentful/internal/sanitize"
	"ocw-contentful/internal/store"
)

// Departments looks up OCW department records ({depNo, id, title}).
type Departments interface {
	ByNumber(number string) (domain.Attributes, bool)
	ByTitle(title string) (domain.Attributes, bool)
}

// Builder holds everything one migration run shares between courses. Build
// a new Builder (and Resolver) per run.
type Builder struct {
	Store       store.Store
	Resolver    *resolve.Resolver
	Departments Departments

	// Publish publishes the courseware after its final save.
	Publish bool
	Log     *log.Logger
}

func New(s store.Store, r *resolve.Resolver, deps Departments) *Builder {
	return &Builder{Store: s, Resolver: r, Departments: deps, Log: log.Default()}
}

// Result is the outcome of one course assembly. Lists only hold entries that
// exist in the store.
type Result struct {
	Courseware *domain.Entry
	Department *domain.Entry

	Instructors    []*domain.Entry
	Topics         []*domain.Entry
	Subtopics      []*domain.Entry
	Specialities   []*domain.Entry
	Pages          []*domain.Entry
	Files          []*domain.Entry
	EmbeddedMedia  []*domain.Entry
	MediaResources []*domain.Entry
	PDFResources   []*domain.Entry

	// Failures counts children that were skipped or could not be created
	// or saved.
	Failures int
}

// assembly is the state of one Assemble call.
type assembly struct {
	*Builder
	course *domain.CourseRecord
	res    *Result
	// seenTags dedups (kind, value) tag pairs within the course.
	seenTags map[string]bool
}

// Assemble migrates one course. Child failures only shorten the reference
// lists; an error is returned only when the courseware entry itself cannot
// be created or saved.
func (b *Builder) Assemble(ctx context.Context, course *domain.CourseRecord) (*Result, error) {
	if b.Log == nil {
		b.Log = log.Default()
	}
	a := &assembly{Builder: b, course: course, res: &Result{}, seenTags: map[string]bool{}}

	a.res.Department = a.department(ctx)

	cw, err := a.courseware(ctx)
	if err != nil {
		return nil, fmt.Errorf("topology: course %s: %w", course.UID, err)
	}
	a.res.Courseware = cw

	a.instructors(ctx)
	a.tags(ctx)
	a.pages(ctx)
	a.mediaResources(ctx)
	a.pdfResources(ctx)

	if err := a.commit(ctx); err != nil {
		return a.res, fmt.Errorf("topology: course %s: %w", course.UID, err)
	}

	b.Log.Printf("course %s: %d instructors, %d tags, %d pages, %d files, %d embedded media, %d media resources, %d pdfs, %d failures",
		cw.ID, len(a.res.Instructors), len(a.res.Topics)+len(a.res.Subtopics)+len(a.res.Specialities),
		len(a.res.Pages), len(a.res.Files), len(a.res.EmbeddedMedia),
		len(a.res.MediaResources), len(a.res.PDFResources), a.res.Failures)
	return a.res, nil
}

func (a *assembly) resolve(ctx context.Context, kind domain.EntityKind, key, raw domain.Attributes, additions map[string]any) *domain.Entry {
	e, err := a.Resolver.ResolveAttrs(ctx, kind, key, raw, additions)
	if err != nil {
		a.res.Failures++
		return nil
	}
	return e
}

func (a *assembly) trackingTitle(title string) string {
	return mappers.TrackingTitle(a.course.DepartmentNumber(), a.course.MasterCourseNumber(), title)
}

// department looks the course department up by number first; faculty and
// course listings disagree on department keys, so the title is the fallback.
func (a *assembly) department(ctx context.Context) *domain.Entry {
	number := a.course.DepartmentNumber()
	title := a.course.Attrs.String("department")

	var rec domain.Attributes
	var ok bool
	if a.Departments != nil {
		if rec, ok = a.Departments.ByNumber(number); !ok {
			rec, ok = a.Departments.ByTitle(title)
		}
	}
	if !ok {
		if title == "" {
			a.Log.Printf("WARN: course %s: no department for number %q", a.course.UID, number)
			a.res.Failures++
			return nil
		}
		rec = domain.Attributes{"title": title, "depNo": number}
	}
	return a.resolve(ctx, domain.KindDepartment, rec, rec, nil)
}

func (a *assembly) departmentRef(additions map[string]any) map[string]any {
	if a.res.Department != nil {
		additions[mappers.AttrDepartment] = []*domain.Entry{a.res.Department}
	}
	return additions
}

func (a *assembly) courseware(ctx context.Context) (*domain.Entry, error) {
	c := a.course
	additions := a.departmentRef(map[string]any{
		mappers.AttrTrackingTitle: a.trackingTitle(c.Title()),
	})
	if c.Attrs.String("course_uid") == "" && c.UID != "" {
		additions["course_uid"] = c.UID
	}
	return a.Resolver.ResolveAttrs(ctx, domain.KindCourseware, c.Attrs, c.Attrs, additions)
}

func (a *assembly) instructors(ctx context.Context) {
	for _, listing := range a.course.Faculty {
		if strings.TrimSpace(listing) == "" {
			continue
		}
		title, name := mappers.SplitFaculty(listing)
		raw := domain.Attributes{"name": name, "title": title, "directory_title": strings.TrimSpace(listing)}
		if e := a.resolve(ctx, domain.KindInstructor, domain.Attributes{"display_name": listing}, raw, a.departmentRef(map[string]any{})); e != nil {
			a.res.Instructors = append(a.res.Instructors, e)
		}
	}
}

func (a *assembly) tags(ctx context.Context) {
	for _, t := range a.course.Topics {
		a.tag(ctx, domain.KindTopic, t.Topic, &a.res.Topics)
		a.tag(ctx, domain.KindSubtopic, t.Subtopic, &a.res.Subtopics)
		a.tag(ctx, domain.KindSpeciality, t.Speciality, &a.res.Specialities)
	}
}

// tag skips blank values before deriving an identifier.
func (a *assembly) tag(ctx context.Context, kind domain.EntityKind, value string, into *[]*domain.Entry) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	seen := kind.String() + "\x00" + value
	if a.seenTags[seen] {
		return
	}
	a.seenTags[seen] = true

	attrs := domain.Attributes{"value": value}
	if e := a.resolve(ctx, kind, attrs, attrs, nil); e != nil {
		*into = append(*into, e)
	}
}

// pages creates the course pages, then their files and embedded media, and
// saves each page with its file and media links.
func (a *assembly) pages(ctx context.Context) {
	cw := a.res.Courseware
	byUID := map[string]*domain.Entry{}

	for _, p := range a.course.Pages {
		additions := map[string]any{
			mappers.AttrTrackingTitle: a.trackingTitle(p.Attrs.String("title")),
			mappers.AttrCourseware:    cw,
		}
		if text := p.Attrs.String("text"); text != "" {
			additions[mappers.AttrCleanText] = sanitize.CleanHTML(text)
		}
		e := a.resolve(ctx, domain.KindCoursePage, domain.Attributes{"uid": p.UID}, p.Attrs, additions)
		if e == nil {
			continue
		}
		byUID[p.UID] = e
		a.res.Pages = append(a.res.Pages, e)
	}

	files := map[string][]*domain.Entry{}
	for _, f := range a.course.Files {
		e := a.resolve(ctx, domain.KindCourseFile, domain.Attributes{"uid": f.UID}, f.Attrs, map[string]any{
			mappers.AttrTrackingTitle: a.trackingTitle(f.Attrs.String("title")),
			mappers.AttrCourseware:    cw,
		})
		if e == nil {
			continue
		}
		a.res.Files = append(a.res.Files, e)
		if _, ok := byUID[f.ParentUID]; ok {
			files[f.ParentUID] = append(files[f.ParentUID], e)
		}
	}

	media := map[string][]*domain.Entry{}
	for _, m := range a.course.EmbeddedMedia {
		raw := make(domain.Attributes, len(m.Attrs))
		for k, v := range m.Attrs {
			raw[k] = v
		}
		if loc := m.Attrs.String("technical_location"); loc != "" {
			raw["technical_location"] = mappers.Truncate(loc, mappers.MaxTechnicalLocation)
		}
		additions := map[string]any{
			mappers.AttrTrackingTitle: a.trackingTitle(m.Attrs.String("title")),
			mappers.AttrCourseware:    cw,
		}
		if vid := m.YouTubeStreamID(); vid != "" {
			additions["youtube_id"] = mappers.Truncate(vid, mappers.MaxVideoID)
		}
		e := a.resolve(ctx, domain.KindEmbeddedMedia, domain.Attributes{"uid": m.UID}, raw, additions)
		if e == nil {
			continue
		}
		a.res.EmbeddedMedia = append(a.res.EmbeddedMedia, e)
		if _, ok := byUID[m.ParentUID]; ok {
			media[m.ParentUID] = append(media[m.ParentUID], e)
		}
	}

	for _, p := range a.course.Pages {
		page, ok := byUID[p.UID]
		if !ok {
			continue
		}
		page.Set(mappers.FieldFiles, fields.Encode(files[p.UID]))
		page.Set(mappers.FieldEmbeddedMedia, fields.Encode(media[p.UID]))
		if err := a.Store.Save(ctx, page); err != nil {
			a.Log.Printf("issue saving %s %s: %v", page.Kind, page.ID, err)
			a.res.Failures++
		}
	}
}

func (a *assembly) mediaResources(ctx context.Context) {
	for _, m := range a.course.MediaResources {
		raw := domain.Attributes{"title": m.Title, "path": m.Path}
		e := a.resolve(ctx, domain.KindMediaResource, domain.Attributes{"youtube_id": m.VideoID}, raw, map[string]any{
			mappers.AttrTrackingTitle: a.trackingTitle(m.Title),
			mappers.AttrCourseware:    a.res.Courseware,
			"youtube_id":              mappers.Truncate(strings.TrimSpace(m.VideoID), mappers.MaxVideoID),
		})
		if e != nil {
			a.res.MediaResources = append(a.res.MediaResources, e)
		}
	}
}

func (a *assembly) pdfResources(ctx context.Context) {
	for _, g := range a.course.PDFs {
		for _, u := range g.URLs {
			name := fileName(u)
			raw := domain.Attributes{"url": u, "category": g.Category, "title": name}
			e := a.resolve(ctx, domain.KindPDFResource, domain.Attributes{"url": u}, raw, map[string]any{
				mappers.AttrTrackingTitle: a.trackingTitle(name),
				mappers.AttrCourseware:    a.res.Courseware,
			})
			if e != nil {
				a.res.PDFResources = append(a.res.PDFResources, e)
			}
		}
	}
}

// commit sets every reference list on the courseware and saves it once.
func (a *assembly) commit(ctx context.Context) error {
	cw := a.res.Courseware
	if a.res.Department != nil {
		cw.Set(mappers.FieldDepartment, fields.Encode([]*domain.Entry{a.res.Department}))
	}
	refs := map[string][]*domain.Entry{
		mappers.FieldInstructors:    a.res.Instructors,
		mappers.FieldTopics:         a.res.Topics,
		mappers.FieldSubtopics:      a.res.Subtopics,
		mappers.FieldSpecialities:   a.res.Specialities,
		mappers.FieldCoursePages:    a.res.Pages,
		mappers.FieldCourseFiles:    a.res.Files,
		mappers.FieldMediaResources: a.res.MediaResources,
		mappers.FieldPDFResources:   a.res.PDFResources,
	}
	for name, list := range refs {
		cw.Set(name, fields.Encode(list))
	}

	if err := a.Store.Save(ctx, cw); err != nil {
		return fmt.Errorf("save %s %s: %w", cw.Kind, cw.ID, err)
	}
	if a.Publish {
		if err := a.Store.Publish(ctx, cw); err != nil {
			a.Log.Printf("issue publishing %s %s: %v", cw.Kind, cw.ID, err)
		}
	}
	return nil
}

func fileName(raw string) string {
	p := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		p = u.Path
	}
	return path.Base(strings.TrimRight(p, "/"))
}
