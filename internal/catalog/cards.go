package catalog

// hackers is indexed by CardID.Index. No two entries are equal.
var hackers = [CardCount]Card{
	{Value: 1, Virus: true, Symbol: Database, Penalty: PenaltyBurnout},
	{Value: 1, Virus: true, Symbol: Database, Penalty: PenaltyCompromise},
	{Value: 1, Virus: false, Symbol: Database, Penalty: PenaltyNinja},
	{Value: 1, Virus: false, Symbol: Database, Penalty: PenaltyNone},
	{Value: 1, Virus: true, Symbol: Webservice, Penalty: PenaltyCompromise},
	{Value: 1, Virus: true, Symbol: Webservice, Penalty: PenaltyBurnout},
	{Value: 1, Virus: false, Symbol: Webservice, Penalty: PenaltyNoGiveAssist},
	{Value: 1, Virus: false, Symbol: Webservice, Penalty: PenaltyNinja},
	{Value: 1, Virus: true, Symbol: Keyboard, Penalty: PenaltyBurnout},
	{Value: 1, Virus: true, Symbol: Keyboard, Penalty: PenaltyNone},
	{Value: 1, Virus: false, Symbol: Keyboard, Penalty: PenaltyNinja},
	{Value: 1, Virus: false, Symbol: Keyboard, Penalty: PenaltyNoSecure},
	{Value: 1, Virus: false, Symbol: NoSymbol, Penalty: PenaltyCompromise},

	{Value: 2, Virus: true, Symbol: Database, Penalty: PenaltyCompromise},
	{Value: 2, Virus: true, Symbol: Database, Penalty: PenaltyBurnout},
	{Value: 2, Virus: false, Symbol: Database, Penalty: PenaltyNinja},
	{Value: 2, Virus: false, Symbol: Database, Penalty: PenaltyNone},
	{Value: 2, Virus: true, Symbol: Webservice, Penalty: PenaltyBurnout},
	{Value: 2, Virus: true, Symbol: Webservice, Penalty: PenaltyCompromise},
	{Value: 2, Virus: false, Symbol: Webservice, Penalty: PenaltyNinja},
	{Value: 2, Virus: false, Symbol: Webservice, Penalty: PenaltyNoGiveAssist},
	{Value: 2, Virus: true, Symbol: Keyboard, Penalty: PenaltyNone},
	{Value: 2, Virus: true, Symbol: Keyboard, Penalty: PenaltyBurnout},
	{Value: 2, Virus: false, Symbol: Keyboard, Penalty: PenaltyNinja},
	{Value: 2, Virus: false, Symbol: Keyboard, Penalty: PenaltyNoSecure},
	{Value: 2, Virus: false, Symbol: NoSymbol, Penalty: PenaltyCompromise},

	{Value: 3, Virus: false, Symbol: Database, Penalty: PenaltyNone},
	{Value: 3, Virus: true, Symbol: Database, Penalty: PenaltyCompromise},
	{Value: 3, Virus: true, Symbol: Database, Penalty: PenaltyBurnout},
	{Value: 3, Virus: false, Symbol: Database, Penalty: PenaltyDrawLeft},
	{Value: 3, Virus: false, Symbol: Database, Penalty: PenaltyNoSecure},
	{Value: 3, Virus: false, Symbol: Webservice, Penalty: PenaltyNoGiveAssist},
	{Value: 3, Virus: true, Symbol: Webservice, Penalty: PenaltyBurnout},
	{Value: 3, Virus: true, Symbol: Webservice, Penalty: PenaltyCompromise},
	{Value: 3, Virus: false, Symbol: Webservice, Penalty: PenaltyDrawLeft},
	{Value: 3, Virus: true, Symbol: Keyboard, Penalty: PenaltyCompromise},
	{Value: 3, Virus: true, Symbol: Keyboard, Penalty: PenaltyNone},
	{Value: 3, Virus: false, Symbol: Keyboard, Penalty: PenaltyDrawLeft},
	{Value: 3, Virus: false, Symbol: NoSymbol, Penalty: PenaltyBurnout},

	{Value: 4, Virus: true, Symbol: Database, Penalty: PenaltyCompromise},
	{Value: 4, Virus: true, Symbol: Database, Penalty: PenaltyBurnout},
	{Value: 4, Virus: false, Symbol: Database, Penalty: PenaltyDrawRight},
	{Value: 4, Virus: false, Symbol: Database, Penalty: PenaltyNoSecure},
	{Value: 4, Virus: false, Symbol: Database, Penalty: PenaltyNone},
	{Value: 4, Virus: true, Symbol: Webservice, Penalty: PenaltyBurnout},
	{Value: 4, Virus: true, Symbol: Webservice, Penalty: PenaltyCompromise},
	{Value: 4, Virus: false, Symbol: Webservice, Penalty: PenaltyDrawRight},
	{Value: 4, Virus: false, Symbol: Webservice, Penalty: PenaltyNoGiveAssist},
	{Value: 4, Virus: true, Symbol: Keyboard, Penalty: PenaltyDrawRight},
	{Value: 4, Virus: true, Symbol: Keyboard, Penalty: PenaltyCompromise},
	{Value: 4, Virus: false, Symbol: Keyboard, Penalty: PenaltyNone},
	{Value: 4, Virus: false, Symbol: NoSymbol, Penalty: PenaltyBurnout},

	{Value: 5, Virus: false, Symbol: Database, Penalty: PenaltyCompromise},
	{Value: 5, Virus: false, Symbol: Webservice, Penalty: PenaltyNinja},
	{Value: 5, Virus: false, Symbol: Keyboard, Penalty: PenaltyBurnout},
	{Value: 5, Virus: true, Symbol: NoSymbol, Penalty: PenaltyCompromise},
	{Value: 5, Virus: true, Symbol: NoSymbol, Penalty: PenaltyNinja},
	{Value: 5, Virus: true, Symbol: NoSymbol, Penalty: PenaltyBurnout},
	{Value: 5, Virus: true, Symbol: NoSymbol, Penalty: PenaltyNoGiveAssist},

	{Value: 6, Virus: true, Symbol: Database, Penalty: PenaltyIdle},
	{Value: 6, Virus: true, Symbol: Keyboard, Penalty: PenaltyDoubleNinja},
	{Value: 6, Virus: true, Symbol: NoSymbol, Penalty: PenaltyNoTalentBurnout},
	{Value: 6, Virus: true, Symbol: NoSymbol, Penalty: PenaltyDiscardSecure},
	{Value: 6, Virus: true, Symbol: NoSymbol, Penalty: PenaltyNoGiveAssistBurnout},
	{Value: 6, Virus: true, Symbol: NoSymbol, Penalty: PenaltyNoSecureRevive},
	{Value: 6, Virus: true, Symbol: Webservice, Penalty: PenaltyDoubleCompromise},
}
