package panel

import (
	"company-panel/internal/model"
)

// Version is reported by the info widget
const Version = "1.0.0"

// Descriptor is the JSON description of a panel as seen by one user
type Descriptor struct {
	ID         string            `json:"id"`
	Path       string            `json:"path"`
	Colors     map[string]string `json:"colors"`
	Tenant     *TenantRef        `json:"tenant,omitempty"`
	Pages      []PageLink        `json:"pages"`
	Widgets    []WidgetData      `json:"widgets"`
	UserMenu   []MenuLink        `json:"user_menu"`
	Navigation []MenuLink        `json:"navigation"`
}

// TenantRef identifies the company a descriptor was built for
type TenantRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// PageLink is a page entry of a descriptor
type PageLink struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// WidgetData is a widget with its rendered data
type WidgetData struct {
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
}

// MenuLink is a resolved menu item
type MenuLink struct {
	Key   string `json:"key,omitempty"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	URL   string `json:"url"`
}

// Describe resolves the panel for the user, inside tenant when the panel is tenant-scoped
func (p *Panel) Describe(u *model.User, tenant *model.Tenant) Descriptor {
	d := Descriptor{
		ID:         p.ID,
		Path:       p.Path,
		Colors:     p.Colors,
		Pages:      []PageLink{},
		Widgets:    []WidgetData{},
		UserMenu:   resolveMenu(p.UserMenuItems, u),
		Navigation: resolveMenu(p.NavigationItems, u),
	}

	var tenantID uint
	if tenant != nil {
		tenantID = tenant.ID
		d.Tenant = &TenantRef{ID: tenant.ID, Name: tenant.Name}
	}

	for _, name := range p.Pages {
		info := KnownPages[name]
		if info.TenantScoped && tenant == nil {
			continue
		}
		d.Pages = append(d.Pages, PageLink{Name: name, Title: info.Title, URL: p.PageURL(name, tenantID)})
	}

	for _, w := range p.Widgets {
		d.Widgets = append(d.Widgets, widgetData(w, u))
	}
	return d
}

func resolveMenu(items []MenuItem, u *model.User) []MenuLink {
	links := make([]MenuLink, 0, len(items))
	for _, item := range items {
		links = append(links, MenuLink{Key: item.Key, Label: item.Label, Icon: item.Icon, URL: item.URL(u)})
	}
	return links
}

func widgetData(name string, u *model.User) WidgetData {
	switch name {
	case WidgetAccount:
		data := map[string]interface{}{}
		if u != nil {
			data["name"] = u.Name
			data["email"] = u.Email
			data["avatar_url"] = u.AvatarURL()
		}
		return WidgetData{Name: name, Data: data}
	case WidgetInfo:
		return WidgetData{Name: name, Data: map[string]interface{}{"app": "company-panel", "version": Version}}
	default:
		return WidgetData{Name: name, Data: map[string]interface{}{}}
	}
}
