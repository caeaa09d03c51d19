package catalog

// Penalty is what a hacker does to the operator who puts it on the backtrace
// list.
type Penalty string

const (
	PenaltyNone                Penalty = "none"
	PenaltyCompromise          Penalty = "compromise"
	PenaltyBurnout             Penalty = "burnout"
	PenaltyNinja               Penalty = "ninja"
	PenaltyNoSecure            Penalty = "no_secure"
	PenaltyNoGiveAssist        Penalty = "no_give_assist"
	PenaltyDrawLeft            Penalty = "draw_left"
	PenaltyDrawRight           Penalty = "draw_right"
	PenaltyDoubleCompromise    Penalty = "double_compromise"
	PenaltyNoSecureRevive      Penalty = "no_secure_revive"
	PenaltyNoGiveAssistBurnout Penalty = "no_give_assist_burnout"
	PenaltyDiscardSecure       Penalty = "discard_secure"
	PenaltyNoTalentBurnout     Penalty = "no_talent_burnout"
	PenaltyDoubleNinja         Penalty = "double_ninja"
	PenaltyIdle                Penalty = "idle"
)

type EffectKind string

const (
	// EffectCompromise takes down a firewall.
	EffectCompromise EffectKind = "compromise"
	// EffectBurnout puts a burnout token on the operator; a second one
	// compromises instead.
	EffectBurnout EffectKind = "burnout"
	// EffectBypass moves the top of the draw pile onto the breach, unseen.
	EffectBypass EffectKind = "bypass"
	// EffectRestrict removes a capability until the end of the round.
	EffectRestrict      EffectKind = "restrict"
	EffectDrawLeft      EffectKind = "draw_left"
	EffectDrawRight     EffectKind = "draw_right"
	EffectDiscardSecure EffectKind = "discard_secure"
	EffectIdle          EffectKind = "idle"
	// EffectRevive puts the top of the discard pile under the draw pile.
	EffectRevive EffectKind = "revive"
)

// Capability is something a Restrict effect can take away.
type Capability string

const (
	CapSecure     Capability = "secure"
	CapGiveAssist Capability = "give_assist"
	CapTalent     Capability = "talent"
)

type Effect struct {
	Kind       EffectKind `json:"kind"`
	Capability Capability `json:"capability,omitempty"`
}

var (
	compromise = Effect{Kind: EffectCompromise}
	burnout    = Effect{Kind: EffectBurnout}
	bypass     = Effect{Kind: EffectBypass}
)

func restrict(c Capability) Effect { return Effect{Kind: EffectRestrict, Capability: c} }

var penaltyEffects = map[Penalty][]Effect{
	PenaltyNone:                nil,
	PenaltyCompromise:          {compromise},
	PenaltyBurnout:             {burnout},
	PenaltyNinja:               {bypass},
	PenaltyNoSecure:            {restrict(CapSecure)},
	PenaltyNoGiveAssist:        {restrict(CapGiveAssist)},
	PenaltyDrawLeft:            {{Kind: EffectDrawLeft}},
	PenaltyDrawRight:           {{Kind: EffectDrawRight}},
	PenaltyDoubleCompromise:    {compromise, compromise},
	PenaltyNoSecureRevive:      {restrict(CapSecure), {Kind: EffectRevive}},
	PenaltyNoGiveAssistBurnout: {restrict(CapGiveAssist), burnout},
	PenaltyDiscardSecure:       {{Kind: EffectDiscardSecure}},
	PenaltyNoTalentBurnout:     {burnout, restrict(CapTalent)},
	PenaltyDoubleNinja:         {bypass, bypass},
	PenaltyIdle:                {{Kind: EffectIdle}},
}

// Penalties lists every penalty in the catalog.
func Penalties() []Penalty {
	return []Penalty{
		PenaltyNone, PenaltyCompromise, PenaltyBurnout, PenaltyNinja, PenaltyNoSecure,
		PenaltyNoGiveAssist, PenaltyDrawLeft, PenaltyDrawRight, PenaltyDoubleCompromise,
		PenaltyNoSecureRevive, PenaltyNoGiveAssistBurnout, PenaltyDiscardSecure,
		PenaltyNoTalentBurnout, PenaltyDoubleNinja, PenaltyIdle,
	}
}

// Effects returns the ordered primitives a penalty resolves into. A
// discard_secure primitive, which needs a player decision, is always last.
func (p Penalty) Effects() []Effect {
	effects := penaltyEffects[p]
	out := make([]Effect, len(effects))
	copy(out, effects)
	return out
}
