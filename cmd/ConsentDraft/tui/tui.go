// Package tui implements the interactive contract creation wizard for the
// terminal. It drives a wizard.Session step by step: each wizard step renders
// as a form, navigation is gated by the session, and the final summary screen
// submits or saves the draft.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/ConsentLoop/ConsentDraft/internal/catalog"
	"github.com/ConsentLoop/ConsentDraft/internal/models"
	"github.com/ConsentLoop/ConsentDraft/internal/store"
	"github.com/ConsentLoop/ConsentDraft/internal/wizard"
)

// timeLayout is the input format for the contract start time.
const timeLayout = "2006-01-02 15:04"

// Options configures a wizard run.
type Options struct {
	Store   store.Store
	Catalog *catalog.Catalog
	OwnerID string
	// DraftID resumes a previously saved draft when set.
	DraftID string
}

// navAction is what the user chose to do after filling in a step.
type navAction int

const (
	navContinue navAction = iota
	// navStay re-renders whatever step the session now reports active,
	// without advancing. Used after edits that re-resolve the step.
	navStay
	navBack
	navSaveExit
	navDiscard
)

type runner struct {
	session *wizard.Session
	store   store.Store
	cat     *catalog.Catalog
}

// Run starts the interactive wizard and blocks until the contract is
// submitted, saved for later, or discarded.
func Run(ctx context.Context, opts Options) error {
	r := &runner{
		session: wizard.NewSession(opts.Catalog, opts.Store, opts.OwnerID),
		store:   opts.Store,
		cat:     opts.Catalog,
	}

	if opts.DraftID != "" {
		if err := r.session.Hydrate(ctx, opts.DraftID); err != nil {
			return fmt.Errorf("failed to resume draft %s: %w", opts.DraftID, err)
		}
		fmt.Println(subtitleStyle.Render(fmt.Sprintf("Resumed draft %s", opts.DraftID)))
	}

	return r.loop(ctx)
}

func (r *runner) loop(ctx context.Context) error {
	for {
		step := r.session.CurrentStep()

		var action navAction
		var err error
		switch step {
		case wizard.StepEncounterType:
			action, err = r.runEncounterType()
		case wizard.StepUniversity:
			action, err = r.runUniversity()
		case wizard.StepParties:
			action, err = r.runParties()
		case wizard.StepIntimateActs:
			action, err = r.runIntimateActs()
		case wizard.StepDuration:
			action, err = r.runDuration()
		case wizard.StepRecordingMethod:
			action, err = r.runRecordingMethod()
		default:
			return fmt.Errorf("%w: %s", models.ErrUnknownStep, step)
		}
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				action = navDiscard
			} else {
				return err
			}
		}

		switch action {
		case navStay:
			// Re-render the step the session now reports active.
		case navBack:
			r.session.Back()
		case navSaveExit:
			return r.saveAndExit(ctx)
		case navDiscard:
			discarded, err := r.confirmDiscard()
			if err != nil {
				return err
			}
			if discarded {
				return nil
			}
		case navContinue:
			next, msg := r.session.Advance()
			if msg != "" {
				fmt.Println(warningStyle.Render(msg))
				continue
			}
			topo := r.session.Topology()
			steps := topo.Steps()
			if next == step && step == steps[len(steps)-1] {
				done, err := r.runSummary(ctx)
				if err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						discarded, derr := r.confirmDiscard()
						if derr != nil {
							return derr
						}
						if discarded {
							return nil
						}
						continue
					}
					return err
				}
				if done {
					return nil
				}
			}
		}
	}
}

// header prints the step banner.
func (r *runner) header(title string) {
	n, total := r.session.StepNumber()
	fmt.Println(titleStyle.Render(fmt.Sprintf("Step %d of %d: %s", n, total, title)))
}

// navSelect is the shared trailing navigation field for single-form steps.
func navSelect(action *navAction, withBack bool) *huh.Select[navAction] {
	opts := []huh.Option[navAction]{huh.NewOption("Continue", navContinue)}
	if withBack {
		opts = append(opts, huh.NewOption("Go back", navBack))
	}
	opts = append(opts,
		huh.NewOption("Save draft and exit", navSaveExit),
		huh.NewOption("Discard and exit", navDiscard),
	)
	return huh.NewSelect[navAction]().Title("Then").Options(opts...).Value(action)
}

func (r *runner) runEncounterType() (navAction, error) {
	r.header("Encounter type")

	state := r.session.State()
	selected := state.EncounterType

	opts := make([]huh.Option[string], 0, len(r.cat.EncounterTypes()))
	for _, e := range r.cat.EncounterTypes() {
		opts = append(opts, huh.NewOption(e.Label, e.ID))
	}

	action := navContinue
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("What kind of encounter is this contract for?").
			Options(opts...).
			Value(&selected),
		navSelect(&action, false),
	))
	if err := form.Run(); err != nil {
		return navDiscard, err
	}

	// Applying the encounter type re-resolves the active step, so moving
	// forward is navStay rather than an explicit advance.
	r.session.Apply(models.FlowPatch{EncounterType: &selected})
	if action == navContinue {
		return navStay, nil
	}
	return action, nil
}

func (r *runner) runUniversity() (navAction, error) {
	r.header("Jurisdiction")

	state := r.session.State()
	mode := state.SelectionMode
	if mode == models.SelectionModeNone {
		mode = models.SelectionModeUniversity
	}

	action := navContinue
	modeForm := huh.NewForm(huh.NewGroup(
		huh.NewSelect[models.SelectionMode]().
			Title("Which jurisdiction's consent rules apply?").
			Options(
				huh.NewOption("A university's policy", models.SelectionModeUniversity),
				huh.NewOption("A US state's law", models.SelectionModeState),
				huh.NewOption("Not applicable", models.SelectionModeNotApplicable),
			).
			Value(&mode),
		navSelect(&action, true),
	))
	if err := modeForm.Run(); err != nil {
		return navDiscard, err
	}
	if action != navContinue {
		return action, nil
	}

	empty := ""
	switch mode {
	case models.SelectionModeUniversity:
		u, err := r.pickUniversity(state.UniversityID)
		if err != nil {
			return navDiscard, err
		}
		r.session.Apply(models.FlowPatch{
			SelectionMode:  &mode,
			UniversityID:   &u.ID,
			UniversityName: &u.Name,
			StateCode:      &empty,
			StateName:      &empty,
		})
	case models.SelectionModeState:
		st, err := r.pickState(state.StateCode)
		if err != nil {
			return navDiscard, err
		}
		r.session.Apply(models.FlowPatch{
			SelectionMode:  &mode,
			StateCode:      &st.Code,
			StateName:      &st.Name,
			UniversityID:   &empty,
			UniversityName: &empty,
		})
	case models.SelectionModeNotApplicable:
		r.session.Apply(models.FlowPatch{
			SelectionMode:  &mode,
			UniversityID:   &empty,
			UniversityName: &empty,
			StateCode:      &empty,
			StateName:      &empty,
		})
	}
	return navContinue, nil
}

func (r *runner) pickUniversity(currentID string) (models.University, error) {
	universities, err := r.store.ListUniversities("")
	if err != nil {
		slog.Error("tui.pickUniversity: listing failed", "error", err)
		universities = nil
	}
	if len(universities) == 0 {
		universities = catalog.SeedUniversities()
	}

	selected := currentID
	opts := make([]huh.Option[string], 0, len(universities))
	for _, u := range universities {
		opts = append(opts, huh.NewOption(u.Name, u.ID))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("University").
			Options(opts...).
			Value(&selected).
			Height(12),
	))
	if err := form.Run(); err != nil {
		return models.University{}, err
	}
	for _, u := range universities {
		if u.ID == selected {
			return u, nil
		}
	}
	return models.University{}, fmt.Errorf("unknown university %q", selected)
}

func (r *runner) pickState(currentCode string) (models.USState, error) {
	states := catalog.USStates()
	selected := currentCode
	opts := make([]huh.Option[string], 0, len(states))
	for _, s := range states {
		opts = append(opts, huh.NewOption(s.Name, s.Code))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("State").
			Options(opts...).
			Value(&selected).
			Height(12),
	))
	if err := form.Run(); err != nil {
		return models.USState{}, err
	}
	st, ok := catalog.LookupState(selected)
	if !ok {
		return models.USState{}, fmt.Errorf("unknown state %q", selected)
	}
	return st, nil
}

// partiesAction is a choice on the parties screen.
type partiesAction int

const (
	partiesEdit partiesAction = iota
	partiesAdd
	partiesRemove
	partiesQuickAdd
	partiesContinue
	partiesBack
	partiesSave
	partiesDiscard
)

func (r *runner) runParties() (navAction, error) {
	for {
		r.header("Participants")
		r.printParties()

		choice := partiesContinue
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[partiesAction]().
				Title("Participants").
				Options(
					huh.NewOption("Edit a participant", partiesEdit),
					huh.NewOption("Add a participant slot", partiesAdd),
					huh.NewOption("Remove a participant", partiesRemove),
					huh.NewOption("Quick add from contacts", partiesQuickAdd),
					huh.NewOption("Continue", partiesContinue),
					huh.NewOption("Go back", partiesBack),
					huh.NewOption("Save draft and exit", partiesSave),
					huh.NewOption("Discard and exit", partiesDiscard),
				).
				Value(&choice),
		))
		if err := form.Run(); err != nil {
			return navDiscard, err
		}

		switch choice {
		case partiesContinue:
			return navContinue, nil
		case partiesBack:
			return navBack, nil
		case partiesSave:
			return navSaveExit, nil
		case partiesDiscard:
			return navDiscard, nil
		case partiesAdd:
			r.session.AppendPartySlot()
		case partiesEdit:
			if err := r.editParty(); err != nil {
				return navDiscard, err
			}
		case partiesRemove:
			if err := r.removeParty(); err != nil {
				return navDiscard, err
			}
		case partiesQuickAdd:
			if err := r.quickAddContact(); err != nil {
				return navDiscard, err
			}
		}
	}
}

func (r *runner) printParties() {
	parties := r.session.State().Parties
	errs := r.session.PartyErrors()
	for i, p := range parties {
		label := p
		if strings.TrimSpace(p) == "" {
			label = "(empty)"
		}
		if i == 0 {
			label += " (you)"
		}
		line := fmt.Sprintf("  %d. %s", i+1, label)
		if err, ok := errs[i]; ok {
			line += "  " + errorStyle.Render(err.Error())
		}
		fmt.Println(line)
	}
	fmt.Println()
}

// pickPartySlot selects a participant slot past the reserved owner slot.
func (r *runner) pickPartySlot(title string) (int, bool, error) {
	parties := r.session.State().Parties
	if len(parties) < 2 {
		return 0, false, nil
	}
	opts := make([]huh.Option[int], 0, len(parties))
	for i := 1; i < len(parties); i++ {
		label := parties[i]
		if strings.TrimSpace(label) == "" {
			label = "(empty)"
		}
		opts = append(opts, huh.NewOption(fmt.Sprintf("%d. %s", i+1, label), i))
	}
	idx := 1
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().Title(title).Options(opts...).Value(&idx),
	))
	if err := form.Run(); err != nil {
		return 0, false, err
	}
	return idx, true, nil
}

func (r *runner) editParty() error {
	idx, ok, err := r.pickPartySlot("Which participant?")
	if err != nil || !ok {
		return err
	}
	value := r.session.State().Parties[idx]
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Participant").
			Description("A username like @alex, or a full legal name").
			Value(&value),
	))
	if err := form.Run(); err != nil {
		return err
	}
	if _, err := r.session.SetParty(idx, value); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
	}
	return nil
}

func (r *runner) removeParty() error {
	idx, ok, err := r.pickPartySlot("Remove which participant?")
	if err != nil || !ok {
		return err
	}
	if _, err := r.session.RemoveParty(idx); err != nil {
		fmt.Println(errorStyle.Render(err.Error()))
	}
	return nil
}

func (r *runner) quickAddContact() error {
	contacts, err := r.store.ListContacts(r.session.OwnerID())
	if err != nil {
		slog.Error("tui.quickAddContact: listing failed", "error", err)
		return nil
	}
	if len(contacts) == 0 {
		fmt.Println(subtitleStyle.Render("No saved contacts yet."))
		return nil
	}

	opts := make([]huh.Option[string], 0, len(contacts))
	for _, c := range contacts {
		label := c.Username
		if c.Nickname != "" {
			label = fmt.Sprintf("%s (%s)", c.Username, c.Nickname)
		}
		opts = append(opts, huh.NewOption(label, c.ID))
	}
	selected := contacts[0].ID
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Contact").Options(opts...).Value(&selected).Height(12),
	))
	if err := form.Run(); err != nil {
		return err
	}
	for _, c := range contacts {
		if c.ID == selected {
			r.session.QuickAddContact(c)
			return nil
		}
	}
	return nil
}

// Sentinel option values on the acts screen; the NUL prefix keeps them from
// colliding with a user-defined act name.
const (
	actsCustom   = "\x00custom"
	actsContinue = "\x00continue"
	actsBack     = "\x00back"
	actsSave     = "\x00save"
	actsDiscard  = "\x00discard"
)

func (r *runner) runIntimateActs() (navAction, error) {
	for {
		r.header("Itemized acts")

		state := r.session.State()
		names := actNames(r.cat, state)

		opts := make([]huh.Option[string], 0, len(names)+5)
		for _, name := range names {
			opts = append(opts, huh.NewOption(actLabel(name, state.IntimateActs), name))
		}
		opts = append(opts,
			huh.NewOption("Add a custom act", actsCustom),
			huh.NewOption("Continue", actsContinue),
			huh.NewOption("Go back", actsBack),
			huh.NewOption("Save draft and exit", actsSave),
			huh.NewOption("Discard and exit", actsDiscard),
		)

		selected := actsContinue
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select an act to cycle it through yes, no, and unset").
				Options(opts...).
				Value(&selected).
				Height(16),
		))
		if err := form.Run(); err != nil {
			return navDiscard, err
		}

		switch selected {
		case actsContinue:
			return navContinue, nil
		case actsBack:
			return navBack, nil
		case actsSave:
			return navSaveExit, nil
		case actsDiscard:
			return navDiscard, nil
		case actsCustom:
			name := ""
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Act name").Value(&name).Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("act name is required")
					}
					return nil
				}),
			))
			if err := form.Run(); err != nil {
				return navDiscard, err
			}
			r.session.ToggleAct(strings.TrimSpace(name))
		default:
			r.session.ToggleAct(selected)
		}
	}
}

// actNames merges the catalog's suggested acts with any already-answered acts,
// keeping catalog order first and extra names sorted after.
func actNames(cat *catalog.Catalog, state models.FlowState) []string {
	names := catalog.ActsFor(state.EncounterType)
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	var extra []string
	for n := range state.IntimateActs {
		if !seen[n] {
			extra = append(extra, n)
		}
	}
	sort.Strings(extra)
	return append(names, extra...)
}

func actLabel(name string, acts map[string]models.ActState) string {
	switch acts[name] {
	case models.ActStateYes:
		return fmt.Sprintf("[yes] %s", name)
	case models.ActStateNo:
		return fmt.Sprintf("[no]  %s", name)
	default:
		return fmt.Sprintf("[   ] %s", name)
	}
}

func (r *runner) runDuration() (navAction, error) {
	r.header("Time window")

	state := r.session.State()
	startStr := ""
	if state.ContractStartTime != nil {
		startStr = state.ContractStartTime.Format(timeLayout)
	}
	durationStr := state.ContractDuration

	action := navContinue
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Start time").
			Description("Format: 2006-01-02 15:04, leave blank for none").
			Value(&startStr).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				if _, err := time.ParseInLocation(timeLayout, strings.TrimSpace(s), time.Local); err != nil {
					return fmt.Errorf("use the format 2006-01-02 15:04")
				}
				return nil
			}),
		huh.NewInput().
			Title("Duration").
			Description("For example 2h or 45m, leave blank for none").
			Value(&durationStr).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return nil
				}
				if _, err := time.ParseDuration(strings.TrimSpace(s)); err != nil {
					return fmt.Errorf("use a duration like 2h or 45m")
				}
				return nil
			}),
		navSelect(&action, true),
	))
	if err := form.Run(); err != nil {
		return navDiscard, err
	}
	if action == navBack || action == navDiscard {
		return action, nil
	}

	patch := models.FlowPatch{}
	durationStr = strings.TrimSpace(durationStr)
	patch.ContractDuration = &durationStr
	if s := strings.TrimSpace(startStr); s != "" {
		start, err := time.ParseInLocation(timeLayout, s, time.Local)
		if err == nil {
			patch.ContractStartTime = &start
			if d, derr := time.ParseDuration(durationStr); derr == nil && durationStr != "" {
				end := start.Add(d)
				patch.ContractEndTime = &end
			}
		}
	}
	r.session.Apply(patch)
	return action, nil
}

func (r *runner) runRecordingMethod() (navAction, error) {
	r.header("Recording method")

	state := r.session.State()
	method := state.Method
	if method == models.RecordingMethodNone {
		method = models.RecordingMethodSignature
	}

	action := navContinue
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[models.RecordingMethod]().
			Title("How do you want to record consent?").
			Options(
				huh.NewOption("Drawn signatures", models.RecordingMethodSignature),
				huh.NewOption("Voice recording", models.RecordingMethodVoice),
				huh.NewOption("Photo", models.RecordingMethodPhoto),
				huh.NewOption("Biometric check", models.RecordingMethodBiometric),
			).
			Value(&method),
		navSelect(&action, true),
	))
	if err := form.Run(); err != nil {
		return navDiscard, err
	}
	if action == navContinue || action == navSaveExit {
		r.session.Apply(models.FlowPatch{Method: &method})
	}
	return action, nil
}

// summaryAction is a choice on the final summary screen.
type summaryAction int

const (
	summarySubmit summaryAction = iota
	summaryBack
	summarySave
	summaryDiscard
)

// runSummary shows the contract summary. It returns true when the wizard is
// finished, false when the user went back to keep editing.
func (r *runner) runSummary(ctx context.Context) (bool, error) {
	fmt.Println(titleStyle.Render("Review your contract"))
	r.printSummary()

	choice := summarySubmit
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[summaryAction]().
			Title("Ready?").
			Options(
				huh.NewOption("Submit contract", summarySubmit),
				huh.NewOption("Go back and edit", summaryBack),
				huh.NewOption("Save draft and exit", summarySave),
				huh.NewOption("Discard and exit", summaryDiscard),
			).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return false, err
	}

	switch choice {
	case summarySubmit:
		draft, err := r.session.Submit(ctx)
		if err != nil {
			fmt.Println(errorStyle.Render("Submitting failed: " + err.Error()))
			return false, nil
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("Contract submitted. Reference: %s", draft.ID)))
		return true, nil
	case summarySave:
		return true, r.saveAndExit(ctx)
	case summaryDiscard:
		return r.confirmDiscard()
	default:
		return false, nil
	}
}

func (r *runner) printSummary() {
	state := r.session.State()

	label := state.EncounterType
	if e, ok := r.cat.Lookup(state.EncounterType); ok {
		label = e.Label
	}
	printRow("Encounter", label)

	switch {
	case state.UniversityName != "":
		printRow("Jurisdiction", state.UniversityName)
	case state.StateName != "":
		printRow("Jurisdiction", state.StateName)
	case state.SelectionMode == models.SelectionModeNotApplicable:
		printRow("Jurisdiction", "Not applicable")
	}

	var parties []string
	for _, p := range state.Parties {
		if strings.TrimSpace(p) != "" {
			parties = append(parties, p)
		}
	}
	printRow("Participants", strings.Join(parties, ", "))

	var yes, no []string
	for name, actState := range state.IntimateActs {
		if actState == models.ActStateYes {
			yes = append(yes, name)
		} else {
			no = append(no, name)
		}
	}
	sort.Strings(yes)
	sort.Strings(no)
	if len(yes) > 0 {
		printRow("Consented", strings.Join(yes, ", "))
	}
	if len(no) > 0 {
		printRow("Declined", strings.Join(no, ", "))
	}

	if state.ContractStartTime != nil {
		printRow("Starts", state.ContractStartTime.Format(timeLayout))
	}
	if state.ContractDuration != "" {
		printRow("Duration", state.ContractDuration)
	}
	if state.Method != models.RecordingMethodNone {
		printRow("Recorded by", string(state.Method))
	}
	fmt.Println()
}

func printRow(label, value string) {
	fmt.Println(summaryLabelStyle.Render(label) + value)
}

func (r *runner) saveAndExit(ctx context.Context) error {
	draft, err := r.session.Save(ctx)
	if err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}
	fmt.Println(successStyle.Render(fmt.Sprintf("Draft saved. Resume it with -resume %s", draft.ID)))
	return nil
}

// confirmDiscard double-checks before throwing away the in-progress state.
// It returns true when the state was discarded and the wizard should exit.
func (r *runner) confirmDiscard() (bool, error) {
	sure := true
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Discard this contract?").
			Affirmative("Discard").
			Negative("Keep editing").
			Value(&sure),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			// A second abort means they really want out.
			r.session.Cancel()
			return true, nil
		}
		return false, err
	}
	if !sure {
		return false, nil
	}
	r.session.Cancel()
	fmt.Println(subtitleStyle.Render("Contract discarded."))
	return true, nil
}
