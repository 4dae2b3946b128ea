package compiler

import (
	"strings"

	"github.com/nexuscrm/fieldsync/internal/domain/models"
	"github.com/nexuscrm/fieldsync/pkg/utils"
)

// TemplateTarget is the custom-object template compiled once per pass.
// Its specs carry the template's own standard ids and no object id.
type TemplateTarget struct {
	Specs      []models.FieldSpec
	Suppressed []string
}

// CompileTemplate compiles the custom-object template for the workspace's flags
func (c *Compiler) CompileTemplate(ctx *Context) (*TemplateTarget, error) {
	tpl := c.registry.Template()
	target := newObjectTarget("", false)

	present := make(map[string]bool, len(tpl.Fields))
	for i := range tpl.Fields {
		f := &tpl.Fields[i]
		if !ctx.Flags.GateOpen(f.Gate) {
			target.suppress(f.StandardID)
			continue
		}
		present[f.Name] = true
	}
	for i := range tpl.Fields {
		f := &tpl.Fields[i]
		if !present[f.Name] {
			continue
		}
		spec := fieldSpec(ctx.WorkspaceID, "", f)
		if spec.Generated != nil && spec.Generated.Expression == "" {
			spec.Generated.Expression = SearchExpression(c.types, tpl.SearchableFields, func(name string) bool { return present[name] })
		}
		target.Specs = append(target.Specs, spec)
	}
	if err := c.finish(target); err != nil {
		return nil, err
	}

	out := &TemplateTarget{Specs: target.Specs}
	for id := range target.Suppressed {
		out.Suppressed = append(out.Suppressed, id)
	}
	return out, nil
}

// InstantiateTemplate binds the compiled template to one custom object:
// standard ids are derived from the template id and the object id, and
// label placeholders are replaced with the object's labels.
func (c *Compiler) InstantiateTemplate(ctx *Context, tpl *TemplateTarget, object *models.ObjectMetadata) (*ObjectTarget, error) {
	target := newObjectTarget(object.ID, object.IsSystem)
	replacer := strings.NewReplacer(
		"{labelSingular}", object.LabelSingular,
		"{labelPlural}", object.LabelPlural,
		"{nameSingular}", object.NameSingular,
	)

	for _, spec := range tpl.Specs {
		sid, err := TemplateStandardID(spec.StandardID, object.ID)
		if err != nil {
			return nil, err
		}
		spec.StandardID = sid
		spec.WorkspaceID = ctx.WorkspaceID
		spec.ObjectMetadataID = object.ID
		spec.Label = replacer.Replace(spec.Label)
		spec.Description = replacer.Replace(spec.Description)
		if spec.Generated != nil {
			g := *spec.Generated
			spec.Generated = &g
		}
		target.Specs = append(target.Specs, spec)
	}
	for _, id := range tpl.Suppressed {
		sid, err := TemplateStandardID(id, object.ID)
		if err != nil {
			return nil, err
		}
		target.suppress(sid)
	}
	return target, nil
}

// TemplateStandardID derives the standard id of a template field on one
// custom object. The result is stable across passes.
func TemplateStandardID(templateFieldID, objectID string) (string, error) {
	return utils.DeriveID(templateFieldID, objectID)
}
