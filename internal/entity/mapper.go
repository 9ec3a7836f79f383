package entity

import (
	"github.com/dgallion1/notioncms/internal/content"
)

// DefaultFAQCategory is used when a FAQ has no category.
const DefaultFAQCategory = "general"

// Field maps. Each entity field is declared once with its kind and whether
// it goes through the locale fallback chain.
var (
	faqFields = struct {
		Question, Answer, Category, Order content.Field
	}{
		Question: content.Field{Name: "Question", Localized: true},
		Answer:   content.Field{Name: "Answer", Localized: true},
		Category: content.Field{Name: "Category", Localized: true},
		Order:    content.Field{Name: "Order", Kind: content.KindNumber},
	}

	teamFields = struct {
		Name, Role, Bio, Image, LinkedIn, Order content.Field
	}{
		Name:     content.Field{Name: "Name", Localized: true},
		Role:     content.Field{Name: "Role", Localized: true},
		Bio:      content.Field{Name: "Bio", Localized: true},
		Image:    content.Field{Name: "Image", Kind: content.KindFiles},
		LinkedIn: content.Field{Name: "LinkedIn", Kind: content.KindURL},
		Order:    content.Field{Name: "Order", Kind: content.KindNumber},
	}

	eventFields = struct {
		Title, Description, Date, Location, Image            content.Field
		Capacity, RegisteredCount, RegistrationType, RegLink content.Field
	}{
		Title:            content.Field{Name: "Title", Localized: true},
		Description:      content.Field{Name: "Description", Localized: true},
		Date:             content.Field{Name: "Date", Kind: content.KindDate},
		Location:         content.Field{Name: "Location", Kind: content.KindRichText},
		Image:            content.Field{Name: "Image", Kind: content.KindFiles},
		Capacity:         content.Field{Name: "Capacity", Kind: content.KindNumber},
		RegisteredCount:  content.Field{Name: "RegisteredCount", Kind: content.KindNumber},
		RegistrationType: content.Field{Name: "RegistrationType", Kind: content.KindSelect},
		RegLink:          content.Field{Name: "RegistrationLink", Kind: content.KindURL},
	}

	postFields = struct {
		Slug, Title, Excerpt, CoverImage, PublishedAt, Published content.Field
		Category, AuthorName, AuthorImage                        content.Field
	}{
		Slug:        content.Field{Name: "Slug", Kind: content.KindRichText},
		Title:       content.Field{Name: "Title", Localized: true},
		Excerpt:     content.Field{Name: "Excerpt", Localized: true},
		CoverImage:  content.Field{Name: "CoverImage", Kind: content.KindFiles},
		PublishedAt: content.Field{Name: "PublishedAt", Kind: content.KindDate},
		Published:   content.Field{Name: "Published", Kind: content.KindCheckbox},
		Category:    content.Field{Name: "Category", Localized: true},
		AuthorName:  content.Field{Name: "AuthorName", Kind: content.KindRichText},
		AuthorImage: content.Field{Name: "AuthorImage", Kind: content.KindFiles},
	}
)

func MapFAQ(p content.Page, locale content.Locale) FAQ {
	f := FAQ{
		ID:       p.ID,
		Question: faqFields.Question.String(p.Properties, locale),
		Answer:   faqFields.Answer.String(p.Properties, locale),
		Category: faqFields.Category.String(p.Properties, locale),
	}
	if f.Category == "" {
		f.Category = DefaultFAQCategory
	}
	if order, ok := faqFields.Order.Int(p.Properties); ok {
		f.Order = order
	}
	return f
}

func MapTeamMember(p content.Page, locale content.Locale) TeamMember {
	return TeamMember{
		ID:       p.ID,
		Name:     teamFields.Name.String(p.Properties, locale),
		Role:     teamFields.Role.String(p.Properties, locale),
		Bio:      teamFields.Bio.String(p.Properties, locale),
		Image:    teamFields.Image.String(p.Properties, locale),
		LinkedIn: teamFields.LinkedIn.Optional(p.Properties, locale),
	}
}

func MapEvent(p content.Page, locale content.Locale) Event {
	label, _ := p.Properties.Select(eventFields.RegistrationType.Name)
	return Event{
		ID:               p.ID,
		Title:            eventFields.Title.String(p.Properties, locale),
		Description:      eventFields.Description.String(p.Properties, locale),
		Date:             eventFields.Date.Time(p.Properties),
		Location:         eventFields.Location.String(p.Properties, locale),
		Image:            eventFields.Image.Optional(p.Properties, locale),
		Capacity:         eventFields.Capacity.OptionalInt(p.Properties),
		RegisteredCount:  eventFields.RegisteredCount.OptionalInt(p.Properties),
		RegistrationType: ParseRegistrationType(label),
		RegistrationLink: eventFields.RegLink.Optional(p.Properties, locale),
	}
}

func MapBlogPost(p content.Page, locale content.Locale) BlogPost {
	return BlogPost{
		ID:          p.ID,
		Slug:        postFields.Slug.String(p.Properties, locale),
		Title:       postFields.Title.String(p.Properties, locale),
		Excerpt:     postFields.Excerpt.String(p.Properties, locale),
		CoverImage:  postFields.CoverImage.String(p.Properties, locale),
		PublishedAt: postFields.PublishedAt.Time(p.Properties),
		Category:    postFields.Category.Optional(p.Properties, locale),
		Author: Author{
			Name:  postFields.AuthorName.String(p.Properties, locale),
			Image: postFields.AuthorImage.String(p.Properties, locale),
		},
	}
}
