package parser

import "strings"

// fixtureGamelogs is the embedded g_gamelogs payload of the standard test
// document: two players, counter snapshots, a tile placement and one
// authoritative scoring fragment at move 6.
const fixtureGamelogs = `{"status":1,"data":{"valid":1,"data":[` +
	`{"move_id":"1","time":"13:05:01","data":[{"uid":"u1","type":"playerTurn","log":"","args":{"player_id":"86296239","player_name":"Alice"}}]},` +
	`{"move_id":"2","time":"13:06:12","data":[{"uid":"u2","type":"playerTurn","log":"","args":{"player_id":"93236734","player_name":"Bob"}}]},` +
	`{"move_id":"3","time":"13:20:44","data":[` +
	`{"uid":"u3","type":"playerTurn","log":"","args":{"player_id":"86296239"}},` +
	`{"uid":"u4","type":"counter","log":"","args":{"player_id":"86296239","counter_name":"tracker_m_ff0000","counter_value":"19"}},` +
	`{"uid":"u5","type":"counter","log":"","args":{"token_name":"tracker_t","counter_value":-28}}]},` +
	`{"move_id":"4","time":"13:41:02","data":[` +
	`{"uid":"u6","type":"playerTurn","log":"","args":{"player_id":"93236734"}},` +
	`{"uid":"u7","type":"placement","log":"","args":{"player_id":"93236734","token_id":"tile_3","place_id":"hex_2_5"}},` +
	`{"uid":"u8","type":"counter","log":"","args":{"token_name":"tracker_w","counter_value":1}}]},` +
	`{"move_id":"5","time":"13:55:19","data":[{"uid":"u9","type":"playerTurn","log":"","args":{"player_id":"86296239"}}]},` +
	`{"move_id":"6","time":"14:02:00","data":[` +
	`{"uid":"u10","type":"newGeneration","log":"","args":{}},` +
	`{"uid":"u11","type":"scoringTable","log":"","args":{"data":{` +
	`"86296239":{"total":30,"total_details":{"tr":26,"awards":0,"milestones":5,"cities":0,"greeneries":0,"cards":-1}},` +
	`"93236734":{"total":25,"total_details":{"tr":24,"awards":0,"milestones":0,"cities":0,"greeneries":0,"cards":1}}}}}]},` +
	`{"move_id":"7","time":"14:10:31","data":[{"uid":"u12","type":"playerTurn","log":"","args":{"player_id":"93236734"}}]}` +
	`]}}`

// fixtureDocument assembles the standard synthetic replay document. The
// shape follows the archived pages: replaylogs_move blocks with smalltext
// headers and gamelogreview lines, a g_gamelogs assignment, and data-name
// dictionaries for trackers, milestones and hexes.
func fixtureDocument() string {
	var b strings.Builder
	b.WriteString(`<html><head><title>Game 250604-1037 played 2025-06-04</title></head><body>`)
	b.WriteString(`<div id="tracker_m_ff0000" data-name="MC"></div>`)
	b.WriteString(`<div id="tracker_m_0000ff" data-name="MC"></div>`)
	b.WriteString(`<div id="tracker_h_ff0000" data-name="Heat"></div>`)
	b.WriteString(`<div id="milestone_1" data-name="Terraformer"></div>`)
	b.WriteString(`<div id="award_2" data-name="Thermalist"></div>`)
	b.WriteString(`<div id="hex_2_5" data-name="Middle Ocean"></div>`)
	b.WriteString(`<div id="card_comet" data-name="Comet"></div>`)
	b.WriteString(`<span class="playername">Alice</span>`)
	b.WriteString(`<span class="playername">Bob</span>`)

	move := func(n, ts string, lines ...string) {
		b.WriteString(`<div class="replaylogs_move"><div class="smalltext">Move ` + n + ` : ` + ts + `</div>`)
		for _, l := range lines {
			b.WriteString(`<div class="gamelogreview">` + l + `</div>`)
		}
		b.WriteString(`</div>`)
	}

	move("1", "13:05:01", `Alice chooses corporation Tharsis Republic`)
	move("2", "13:06:12", `Bob chooses corporation Helion`)
	move("3", "13:20:44",
		`Alice plays card <div class="card_hl_tt">Comet</div>`,
		`Alice pays 21 <div class="token_img tracker_m_ff0000" title="M€"></div> M€`)
	move("4", "13:41:02", `Bob places Ocean on Middle Ocean`)
	move("5", "13:55:19", `Alice claims milestone Terraformer`)
	move("6", "14:02:00", `New generation 2`)
	move("7", "14:10:31", `Bob passes`)

	b.WriteString(`<script>var g_gamelogs = ` + fixtureGamelogs + `;</script>`)
	b.WriteString(`</body></html>`)
	return b.String()
}

// fixtureTablePage is a minimal table page with one score-entry per player
// carrying the arena and game winpoints/newrank pairs.
const fixtureTablePage = `<html><body>` +
	`<div class="score-entry">` +
	`<span class="playername">Alice</span>` +
	`<div class="winpoints">+23</div><div class="newrank">1754 pts</div>` +
	`<div class="winpoints">+11</div><div class="newrank">612</div>` +
	`</div>` +
	`<div class="score-entry">` +
	`<span class="playername">Bob</span>` +
	`<div class="winpoints">-23</div><div class="newrank">1401 pts</div>` +
	`<div class="winpoints">-11</div><div class="newrank">598</div>` +
	`</div>` +
	`</body></html>`
