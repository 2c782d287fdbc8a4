package provider

import (
	"strings"

	"github.com/kabegame/kabegame-sub003/internal/query"
	"github.com/kabegame/kabegame-sub003/internal/storage"
	"github.com/kabegame/kabegame-sub003/internal/types"
)

const pluginGroupNoteName = "这里记录了不同插件安装的所有图片.txt"
const pluginGroupNoteBody = "这里按安装它们的插件对图片分组展示。"

// PluginGroupProvider lists the distinct plugins that have produced
// images, each dispatching to a PluginImagesProvider (spec §4.4,
// grounded on providers/plugin_group.rs). name may carry an optional
// "<display name> - <plugin_id>" prefix the manifest display-name lookup
// would add; this module never reads plugin manifests, so it only emits
// the bare plugin id, but GetChild still strips a prefix if one shows up
// on a path built elsewhere.
type PluginGroupProvider struct {
	unsupported

	store *storage.Storage
	notes *NoteFiles
}

func NewPluginGroupProvider(store *storage.Storage, notes *NoteFiles) *PluginGroupProvider {
	return &PluginGroupProvider{store: store, notes: notes}
}

func (p *PluginGroupProvider) Descriptor() Descriptor { return pluginGroupDescriptor() }

func (p *PluginGroupProvider) List() ([]FsEntry, error) {
	ids, err := p.store.GetGalleryPluginGroups()
	if err != nil {
		return nil, err
	}
	out := make([]FsEntry, 0, len(ids)+1)
	if p.notes != nil {
		id, path, err := p.notes.Ensure(pluginGroupNoteName, pluginGroupNoteBody)
		if err != nil {
			return nil, err
		}
		out = append(out, File(pluginGroupNoteName, id, path))
	}
	for _, pid := range ids {
		out = append(out, Dir(pid))
	}
	return out, nil
}

func (p *PluginGroupProvider) GetChild(name string) Provider {
	pluginID := name
	if _, after, found := strings.Cut(name, " - "); found {
		pluginID = after
	}
	pluginID = strings.TrimSpace(pluginID)
	if pluginID == "" {
		return nil
	}
	ids, err := p.store.GetGalleryPluginGroups()
	if err != nil {
		return nil
	}
	for _, id := range ids {
		if ciEqual(id, pluginID) {
			return NewPluginImagesProvider(p.store, id)
		}
	}
	return nil
}

func (p *PluginGroupProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

func (p *PluginGroupProvider) ResolveFile(name string) (types.ImageID, string, bool) {
	if p.notes == nil || name != pluginGroupNoteName {
		return "", "", false
	}
	id, path, err := p.notes.Ensure(pluginGroupNoteName, pluginGroupNoteBody)
	if err != nil {
		return "", "", false
	}
	return id, path, true
}

// PluginImagesProvider lists one plugin's images, delegating to
// CommonProvider over an ImageQuery.ByPlugin query.
type PluginImagesProvider struct {
	*CommonProvider
}

func NewPluginImagesProvider(store *storage.Storage, pluginID string) *PluginImagesProvider {
	return &PluginImagesProvider{CommonProvider: NewCommonProviderWithQuery(store, query.ByPlugin(pluginID))}
}

// DateGroupProvider lists every "YYYY-MM" month with at least one image
// (spec §4.4, grounded on virtual_drive/providers/date_group.rs).
type DateGroupProvider struct {
	unsupported

	store *storage.Storage
}

func NewDateGroupProvider(store *storage.Storage) *DateGroupProvider {
	return &DateGroupProvider{store: store}
}

func (p *DateGroupProvider) Descriptor() Descriptor { return dateGroupDescriptor() }

func (p *DateGroupProvider) List() ([]FsEntry, error) {
	months, err := p.store.GetGalleryDateGroups()
	if err != nil {
		return nil, err
	}
	out := make([]FsEntry, len(months))
	for i, m := range months {
		out[i] = Dir(m)
	}
	return out, nil
}

func (p *DateGroupProvider) GetChild(name string) Provider {
	months, err := p.store.GetGalleryDateGroups()
	if err != nil {
		return nil
	}
	for _, m := range months {
		if m == name {
			return NewDateImagesProvider(p.store, m)
		}
	}
	return nil
}

func (p *DateGroupProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

// DateImagesProvider lists one month's images, delegating to
// CommonProvider over an ImageQuery.ByDate query.
type DateImagesProvider struct {
	*CommonProvider
}

func NewDateImagesProvider(store *storage.Storage, yearMonth string) *DateImagesProvider {
	return &DateImagesProvider{CommonProvider: NewCommonProviderWithQuery(store, query.ByDate(yearMonth))}
}

// TaskGroupProvider lists every task id that has produced at least one
// image, each dispatching to a TaskImagesProvider — analogous to
// PluginGroup but keyed on tasks (spec §4.4).
type TaskGroupProvider struct {
	unsupported

	store *storage.Storage
}

func NewTaskGroupProvider(store *storage.Storage) *TaskGroupProvider {
	return &TaskGroupProvider{store: store}
}

func (p *TaskGroupProvider) Descriptor() Descriptor { return taskGroupDescriptor() }

func (p *TaskGroupProvider) List() ([]FsEntry, error) {
	ids, err := p.store.GetGalleryTaskGroups()
	if err != nil {
		return nil, err
	}
	out := make([]FsEntry, len(ids))
	for i, id := range ids {
		out[i] = Dir(id)
	}
	return out, nil
}

func (p *TaskGroupProvider) GetChild(name string) Provider {
	ids, err := p.store.GetGalleryTaskGroups()
	if err != nil {
		return nil
	}
	for _, id := range ids {
		if ciEqual(id, name) {
			return NewTaskImagesProvider(p.store, types.TaskID(id))
		}
	}
	return nil
}

func (p *TaskGroupProvider) GetChildren() ([]NamedProvider, error) { return defaultChildren(p) }

// TaskImagesProvider lists one task's images, delegating to
// CommonProvider over an ImageQuery.ByTask query.
type TaskImagesProvider struct {
	*CommonProvider
}

func NewTaskImagesProvider(store *storage.Storage, taskID types.TaskID) *TaskImagesProvider {
	return &TaskImagesProvider{CommonProvider: NewCommonProviderWithQuery(store, query.ByTask(string(taskID)))}
}
